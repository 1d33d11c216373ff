package util

import (
	"errors"
	"strings"
)

// NormalizeDigits remove tudo que não for dígito (pontuação de CPF/telefone).
func NormalizeDigits(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateCPF exige exatamente 11 dígitos após normalização.
func ValidateCPF(cpf string) (string, error) {
	digits := NormalizeDigits(cpf)
	if len(digits) != 11 {
		return "", errors.New("cpf deve ter 11 dígitos")
	}
	return digits, nil
}

// ValidateTelefone aceita telefones com 10 ou 11 dígitos após normalização.
func ValidateTelefone(telefone string) (string, error) {
	digits := NormalizeDigits(telefone)
	if len(digits) < 10 || len(digits) > 11 {
		return "", errors.New("telefone inválido")
	}
	return digits, nil
}

// ValidatePassword verifica requisitos mínimos de senha do painel.
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return errors.New("senha deve ter pelo menos 6 caracteres")
	}
	return nil
}

// RequireString garante string não vazia.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(field + " obrigatório")
	}
	return nil
}
