package normalizer

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase and accents", "Lançamento AÇÚCAR", "lancamento acucar"},
		{"punctuation runs", "UBER *TRIP--SAO   PAULO", "uber trip sao paulo"},
		{"noise tokens", "PIX TED João Silva REF 123", "joao silva 123"},
		{"empty", "", ""},
		{"only noise", "pix doc ted", ""},
		{"only punctuation", "*** --- ///", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"strips authorization code", "UBER *TRIP 12345678", "uber trip"},
		{"keeps four tokens", "PAG SUPERMERCADO EXTRA LOJA CENTRO SUL", "pag supermercado extra loja"},
		{"drops single-char tokens", "A B NETFLIX COM", "netflix com"},
		{"short digit runs stay", "POSTO 1234 SHELL", "posto 1234 shell"},
		{"falls back to normalized text", "X 9", "x 9"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Fingerprint(tt.input))
		})
	}
}

func TestFingerprint_SameMerchantDifferentReferences(t *testing.T) {
	a := Fingerprint("IFOOD *RESTAURANTE 8812345 SP")
	b := Fingerprint("IFOOD *RESTAURANTE 9900112 SP")
	assert.Equal(t, a, b)
}

func TestFingerprint_Deterministic(t *testing.T) {
	faker := gofakeit.New(42)
	for i := 0; i < 200; i++ {
		desc := faker.Company() + " " + faker.DigitN(8)
		assert.Equal(t, Fingerprint(desc), Fingerprint(desc))
	}
}

func BenchmarkFingerprint(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Fingerprint("COMPRA CARTAO SUPERMERCADO EXTRA 0001 88123456 SAO PAULO")
	}
}
