package votacao

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feiratec/votacao/internal/facematch"
)

type stubMatcher struct {
	match    *facematch.Match
	err      error
	chamadas int
}

func (m *stubMatcher) Verificar(ctx context.Context, faceImage string, candidatos []facematch.Candidato) (*facematch.Match, error) {
	m.chamadas++
	if m.err != nil {
		return nil, m.err
	}
	return m.match, nil
}

const fotoValida = "data:image/jpeg;base64,Zm90bw=="

func TestCadastrarValidacao(t *testing.T) {
	valido := CadastroInput{
		Nome:       "Maria Silva",
		CPF:        "111.222.333-44",
		Telefone:   "(92) 99999-0000",
		FaceImage:  fotoValida,
		LGPDAceito: true,
	}

	tests := []struct {
		name    string
		mutate  func(*CadastroInput)
		wantErr error
	}{
		{"sem aceite lgpd", func(in *CadastroInput) { in.LGPDAceito = false }, ErrLGPDObrigatorio},
		{"sem nome", func(in *CadastroInput) { in.Nome = "   " }, ErrNomeObrigatorio},
		{"cpf curto", func(in *CadastroInput) { in.CPF = "12345" }, ErrCPFInvalido},
		{"cpf com letras", func(in *CadastroInput) { in.CPF = "1112223334a" }, ErrCPFInvalido},
		{"telefone curto", func(in *CadastroInput) { in.Telefone = "9999" }, ErrTelefoneInvalido},
		{"imagem vazia", func(in *CadastroInput) { in.FaceImage = "" }, ErrImagemInvalida},
		{"imagem corrompida", func(in *CadastroInput) { in.FaceImage = "%%%" }, ErrImagemInvalida},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(NewMemoryStore(), &stubMatcher{})
			input := valido
			tc.mutate(&input)

			_, err := svc.Cadastrar(context.Background(), input)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestCadastrarNormalizaEDuplicaCPF(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), &stubMatcher{})

	p, err := svc.Cadastrar(ctx, CadastroInput{
		Nome:       "  Maria Silva  ",
		CPF:        "111.222.333-44",
		Telefone:   "(92) 99999-0000",
		FaceImage:  fotoValida,
		LGPDAceito: true,
	})
	require.NoError(t, err)
	require.Equal(t, "Maria Silva", p.Nome)
	require.Equal(t, "11122233344", p.CPF)
	require.Equal(t, "92999990000", p.Telefone)
	require.True(t, p.LGPDAceito)
	require.NotNil(t, p.LGPDAceitoEm)
	require.False(t, p.JaVotou)

	// mesmo CPF com outra pontuação continua sendo duplicata
	_, err = svc.Cadastrar(ctx, CadastroInput{
		Nome:       "Outra Pessoa",
		CPF:        "11122233344",
		Telefone:   "92988880000",
		FaceImage:  fotoValida,
		LGPDAceito: true,
	})
	require.ErrorIs(t, err, ErrCPFDuplicado)
}

func TestResolverRostoGaleriaVazia(t *testing.T) {
	matcher := &stubMatcher{}
	svc := NewService(NewMemoryStore(), matcher)

	resolucao, err := svc.ResolverRosto(context.Background(), fotoValida)
	require.NoError(t, err)
	require.False(t, resolucao.Encontrado)
	// sem candidatos não há por que chamar o serviço de comparação
	require.Zero(t, matcher.chamadas)
}

func TestResolverRostoComMatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	p := seedParticipante(t, store, "11122233344")

	matcher := &stubMatcher{match: &facematch.Match{CandidatoID: p.ID, Distancia: 0.2}}
	svc := NewService(store, matcher)

	resolucao, err := svc.ResolverRosto(ctx, fotoValida)
	require.NoError(t, err)
	require.True(t, resolucao.Encontrado)
	require.Equal(t, p.ID, resolucao.Participante.ID)
	require.Equal(t, 1, matcher.chamadas)
}

func TestResolverRostoSemMatch(t *testing.T) {
	store := NewMemoryStore()
	seedParticipante(t, store, "11122233344")

	svc := NewService(store, &stubMatcher{})

	resolucao, err := svc.ResolverRosto(context.Background(), fotoValida)
	require.NoError(t, err)
	require.False(t, resolucao.Encontrado)
}

func TestResolverRostoErros(t *testing.T) {
	store := NewMemoryStore()
	seedParticipante(t, store, "11122233344")

	svc := NewService(store, &stubMatcher{err: facematch.ErrSemRosto})
	_, err := svc.ResolverRosto(context.Background(), fotoValida)
	require.ErrorIs(t, err, facematch.ErrSemRosto)

	svc = NewService(store, &stubMatcher{})
	_, err = svc.ResolverRosto(context.Background(), "não é base64")
	require.ErrorIs(t, err, ErrImagemInvalida)
}

func TestVotar(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	p := seedParticipante(t, store, "11122233344")
	turma := seedTurma(t, store, "3A")

	svc := NewService(store, &stubMatcher{})

	voto, err := svc.Votar(ctx, p.ID, turma.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, voto.ParticipanteID)
	require.Equal(t, turma.ID, voto.TurmaID)

	_, err = svc.Votar(ctx, p.ID, turma.ID)
	require.ErrorIs(t, err, ErrJaVotou)
}
