package votacao

import "errors"

var (
	// ErrJaVotou sinaliza a segunda tentativa de voto de um participante.
	ErrJaVotou = errors.New("você já realizou sua votação")
	// ErrParticipanteNaoEncontrado é retornado para ids de participante desconhecidos.
	ErrParticipanteNaoEncontrado = errors.New("participante não encontrado")
	// ErrTurmaNaoEncontrada é retornado para ids de turma desconhecidos.
	ErrTurmaNaoEncontrada = errors.New("turma não encontrada")
	// ErrCPFInvalido indica CPF sem 11 dígitos após normalização.
	ErrCPFInvalido = errors.New("cpf inválido")
	// ErrCPFDuplicado indica cadastro repetido do mesmo CPF.
	ErrCPFDuplicado = errors.New("cpf já cadastrado")
	// ErrLGPDObrigatorio indica cadastro sem aceite do termo LGPD.
	ErrLGPDObrigatorio = errors.New("aceite do termo LGPD é obrigatório")
	// ErrNomeObrigatorio indica cadastro sem nome.
	ErrNomeObrigatorio = errors.New("nome é obrigatório")
	// ErrTelefoneInvalido indica telefone fora do formato esperado.
	ErrTelefoneInvalido = errors.New("telefone inválido")
	// ErrImagemInvalida indica payload de imagem que não decodifica.
	ErrImagemInvalida = errors.New("imagem inválida")
	// ErrTurmaComVotos bloqueia a remoção de turma que já recebeu votos.
	ErrTurmaComVotos = errors.New("turma possui votos registrados")
	// ErrSenhaNaoConfigurada indica ausência da senha administrativa no banco.
	ErrSenhaNaoConfigurada = errors.New("senha administrativa não configurada")
)
