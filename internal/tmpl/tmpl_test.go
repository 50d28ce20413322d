package tmpl_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/quantstack/releash/internal/tmpl"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "legacy version placeholder",
			in:   "https://github.com/QuantStack/xtl/archive/{version}.tar.gz",
			want: "https://github.com/QuantStack/xtl/archive/{{ .Version }}.tar.gz",
		},
		{
			name: "path placeholder",
			in:   "{path}/include/xtl/xtl_config.hpp",
			want: "{{ .Path }}/include/xtl/xtl_config.hpp",
		},
		{
			name: "unknown placeholder kept",
			in:   "a/{other}/b",
			want: "a/{other}/b",
		},
		{
			name: "go template untouched",
			in:   "{{ .Version }}-{version}",
			want: "{{ .Version }}-{{ .Version }}",
		},
		{
			name: "no braces",
			in:   "plain",
			want: "plain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, tmpl.Normalize(tt.in)).Equal(tt.want)
		})
	}
}

func TestContext_Apply(t *testing.T) {
	ctx := tmpl.New("xtl", map[string]interface{}{"owner": "QuantStack"})
	rel := ctx.WithRelease("xtl", ".", "0.6.2", "0.6.2", 0, 6, 2)

	out, err := rel.Apply("https://github.com/{{ .owner }}/{package}/archive/{version}.tar.gz")
	gt.NoError(t, err)
	gt.Value(t, out).Equal("https://github.com/QuantStack/xtl/archive/0.6.2.tar.gz")

	out, err = rel.Apply("v{{ .Major }}.{{ .Minor }}")
	gt.NoError(t, err)
	gt.Value(t, out).Equal("v0.6")

	// The base context has no version yet.
	_, err = ctx.Apply("{{ .Version }}")
	gt.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	_, err := tmpl.Parse("{{ .Version ")
	gt.Error(t, err)
}
