package pipeline

import (
	"errors"
	"testing"

	"github.com/fpang/cartoonaf/internal/filter"
)

func TestParseRequest_Params(t *testing.T) {
	tests := []struct {
		body string
		want filter.Params
	}{
		{`{"name":"a.png","filter":"ep"}`, filter.Params{}},
		{`{"name":"a.png","filter":"ep","flags":1}`, filter.Params{Flags: 1}},
		{`{"name":"a.png","filter":"ep","flags":1.0}`, filter.Params{Flags: 1}},
		{`{"name":"a.png","filter":"ep","flags":2.0}`, filter.Params{Flags: 2}},
		{`{"name":"a.png","filter":"ep","flags":2.9}`, filter.Params{Flags: 2}},
		{`{"name":"a.png","filter":"ep","flags":null,"sigma_s":60,"sigma_r":0.4}`, filter.Params{SigmaS: 60, SigmaR: 0.4}},
		{`{"name":"a.png","filter":"ps_gray","shade_factor":0.05}`, filter.Params{ShadeFactor: 0.05}},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			req, err := ParseRequest([]byte(tt.body))
			if err != nil {
				t.Fatalf("ParseRequest: %v", err)
			}
			if got := req.Params(); got != tt.want {
				t.Errorf("Params() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseRequest_Rejects(t *testing.T) {
	for _, body := range []string{
		`{"name":"a.png","filter":"ep","flags":"1"}`,
		`{"name":"a.png"}`,
		`{"filter":"ep"}`,
		`[]`,
	} {
		if _, err := ParseRequest([]byte(body)); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("ParseRequest(%s) err = %v, want ErrInvalidRequest", body, err)
		}
	}
}
