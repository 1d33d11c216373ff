package util

import "testing"

func TestValidateCPF(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"formatado", "123.456.789-01", "12345678901", false},
		{"somente digitos", "12345678901", "12345678901", false},
		{"com espacos", " 123 456 789 01 ", "12345678901", false},
		{"curto", "123.456.789", "", true},
		{"longo", "123.456.789-012", "", true},
		{"vazio", "", "", true},
		{"letras", "abc.def.ghi-jk", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateCPF(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("esperava erro para %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("erro inesperado: %v", err)
			}
			if got != tc.want {
				t.Fatalf("esperava %q, veio %q", tc.want, got)
			}
		})
	}
}

func TestValidateTelefone(t *testing.T) {
	if _, err := ValidateTelefone("(92) 99999-1234"); err != nil {
		t.Fatalf("telefone válido rejeitado: %v", err)
	}
	if _, err := ValidateTelefone("1234"); err == nil {
		t.Fatal("telefone curto aceito")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("12345"); err == nil {
		t.Fatal("senha curta aceita")
	}
	if err := ValidatePassword("123456"); err != nil {
		t.Fatalf("senha mínima rejeitada: %v", err)
	}
}
