package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameNormalizer(t *testing.T) {
	n := NewNameNormalizer()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Legumbres", want: "Legumbres"},
		{name: "markup", in: "<b>Carne</b> <script>alert(1)</script>", want: "Carne"},
		{name: "whitespace", in: "  Pan\t de \n molde  ", want: "Pan de molde"},
		{name: "control", in: "Le\x00che", want: "Leche"},
		{name: "entities", in: "Fish &amp; Chips", want: "Fish & Chips"},
		{name: "decomposed", in: "Jamón", want: "Jamón"},
		{name: "empty", in: "", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, n.Normalize(tc.in))
		})
	}
}

func TestNameNormalizerLimit(t *testing.T) {
	n := NewNameNormalizer(WithNameLimit(5))
	assert.Equal(t, "Aceit", n.Normalize("Aceite de oliva"))
	assert.Equal(t, "Pan", NewNameNormalizer(WithNameLimit(4)).Normalize("Pan de molde"))
	assert.Equal(t, "Pan d", n.Normalize("Pan de molde"))

	var nilNormalizer *NameNormalizer
	assert.Equal(t, "Sal", nilNormalizer.Normalize(" Sal "))
}
