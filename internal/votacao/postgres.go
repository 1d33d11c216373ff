package votacao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feiratec/votacao/internal/db"
)

const pgUniqueViolation = "23505"

// PostgresStore persiste participantes, turmas e votos no Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore cria o store sobre o pool compartilhado.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const participanteCols = "id, nome, cpf, telefone, face_image, lgpd_aceito, lgpd_aceito_em, ja_votou, criado_em"
const turmaCols = "id, nome_turma, nome_projeto, numero_barraca, foto_base64, foto_url, votos_count, criado_em, atualizado_em"

// CriarParticipante insere um novo participante com aceite LGPD registrado.
func (s *PostgresStore) CriarParticipante(ctx context.Context, params CriarParticipanteParams) (*Participante, error) {
	const query = `
        INSERT INTO participantes (nome, cpf, telefone, face_image, lgpd_aceito, lgpd_aceito_em)
        VALUES ($1, $2, $3, $4, TRUE, $5)
        RETURNING ` + participanteCols

	row := s.pool.QueryRow(ctx, query, params.Nome, params.CPF, params.Telefone, params.FaceImage, params.LGPDAceitoEm)
	p, err := scanParticipante(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCPFDuplicado
		}
		return nil, err
	}
	return p, nil
}

// GetParticipante busca participante pelo id.
func (s *PostgresStore) GetParticipante(ctx context.Context, id uuid.UUID) (*Participante, error) {
	const query = `SELECT ` + participanteCols + ` FROM participantes WHERE id = $1`

	p, err := scanParticipante(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrParticipanteNaoEncontrado
		}
		return nil, err
	}
	return p, nil
}

// GetParticipantePorCPF busca participante pelo CPF normalizado.
func (s *PostgresStore) GetParticipantePorCPF(ctx context.Context, cpf string) (*Participante, error) {
	const query = `SELECT ` + participanteCols + ` FROM participantes WHERE cpf = $1`

	p, err := scanParticipante(s.pool.QueryRow(ctx, query, cpf))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrParticipanteNaoEncontrado
		}
		return nil, err
	}
	return p, nil
}

// ListarGaleria devolve os rostos cadastrados para comparação facial.
func (s *PostgresStore) ListarGaleria(ctx context.Context) ([]GaleriaItem, error) {
	const query = `SELECT id, face_image FROM participantes ORDER BY criado_em ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var galeria []GaleriaItem
	for rows.Next() {
		var item GaleriaItem
		if err := rows.Scan(&item.ParticipanteID, &item.FaceImage); err != nil {
			return nil, err
		}
		galeria = append(galeria, item)
	}
	return galeria, rows.Err()
}

// ListarTurmas devolve o catálogo em ordem de criação.
func (s *PostgresStore) ListarTurmas(ctx context.Context) ([]Turma, error) {
	const query = `SELECT ` + turmaCols + ` FROM turmas ORDER BY criado_em ASC, id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turmas []Turma
	for rows.Next() {
		t, err := scanTurma(rows)
		if err != nil {
			return nil, err
		}
		turmas = append(turmas, *t)
	}
	return turmas, rows.Err()
}

// GetTurma busca turma pelo id.
func (s *PostgresStore) GetTurma(ctx context.Context, id uuid.UUID) (*Turma, error) {
	const query = `SELECT ` + turmaCols + ` FROM turmas WHERE id = $1`

	t, err := scanTurma(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTurmaNaoEncontrada
		}
		return nil, err
	}
	return t, nil
}

// RegistrarVoto executa a seção crítica do voto em uma transação. O lock de
// linha do participante serializa tentativas concorrentes do mesmo id; o
// índice único em votos.participante_id é a segunda barreira.
func (s *PostgresStore) RegistrarVoto(ctx context.Context, participanteID, turmaID uuid.UUID) (*Voto, error) {
	var voto Voto
	err := db.WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		var jaVotou bool
		err := tx.QueryRow(ctx, `SELECT ja_votou FROM participantes WHERE id = $1 FOR UPDATE`, participanteID).Scan(&jaVotou)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrParticipanteNaoEncontrado
		}
		if err != nil {
			return err
		}
		if jaVotou {
			return ErrJaVotou
		}

		tag, err := tx.Exec(ctx, `UPDATE turmas SET votos_count = votos_count + 1, atualizado_em = now() WHERE id = $1`, turmaID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrTurmaNaoEncontrada
		}

		err = tx.QueryRow(ctx, `
            INSERT INTO votos (participante_id, turma_id)
            VALUES ($1, $2)
            RETURNING id, participante_id, turma_id, criado_em`,
			participanteID, turmaID,
		).Scan(&voto.ID, &voto.ParticipanteID, &voto.TurmaID, &voto.CriadoEm)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrJaVotou
			}
			return err
		}

		_, err = tx.Exec(ctx, `UPDATE participantes SET ja_votou = TRUE WHERE id = $1`, participanteID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &voto, nil
}

// CriarTurma insere uma turma nova no catálogo.
func (s *PostgresStore) CriarTurma(ctx context.Context, input TurmaInput) (*Turma, error) {
	const query = `
        INSERT INTO turmas (nome_turma, nome_projeto, numero_barraca, foto_base64, foto_url)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING ` + turmaCols

	row := s.pool.QueryRow(ctx, query, input.NomeTurma, input.NomeProjeto, input.NumeroBarraca, input.FotoBase64, input.FotoURL)
	return scanTurma(row)
}

// AtualizarTurma edita os campos de uma turma existente.
func (s *PostgresStore) AtualizarTurma(ctx context.Context, id uuid.UUID, input TurmaInput) (*Turma, error) {
	const query = `
        UPDATE turmas
        SET nome_turma = $2,
            nome_projeto = $3,
            numero_barraca = $4,
            foto_base64 = $5,
            foto_url = COALESCE($6, foto_url),
            atualizado_em = now()
        WHERE id = $1
        RETURNING ` + turmaCols

	row := s.pool.QueryRow(ctx, query, id, input.NomeTurma, input.NomeProjeto, input.NumeroBarraca, input.FotoBase64, input.FotoURL)
	t, err := scanTurma(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTurmaNaoEncontrada
		}
		return nil, err
	}
	return t, nil
}

// RemoverTurma apaga a turma. Turmas com votos são protegidas: a remoção
// é recusada em vez de cascatear sobre os votos.
func (s *PostgresStore) RemoverTurma(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		var votos int64
		err := tx.QueryRow(ctx, `SELECT votos_count FROM turmas WHERE id = $1 FOR UPDATE`, id).Scan(&votos)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTurmaNaoEncontrada
		}
		if err != nil {
			return err
		}
		if votos > 0 {
			return ErrTurmaComVotos
		}

		_, err = tx.Exec(ctx, `DELETE FROM turmas WHERE id = $1`, id)
		return err
	})
}

// ResetarTudo apaga votos, participantes e turmas em uma única transação.
func (s *PostgresStore) ResetarTudo(ctx context.Context) (*ResetResultado, error) {
	var resultado ResetResultado
	err := db.WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM votos`)
		if err != nil {
			return err
		}
		resultado.Votos = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `DELETE FROM participantes`)
		if err != nil {
			return err
		}
		resultado.Participantes = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `DELETE FROM turmas`)
		if err != nil {
			return err
		}
		resultado.Turmas = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resultado, nil
}

// consultor abstrai pool e transação para as leituras agregadas.
type consultor interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ContagemPorTurma conta os votos reais de cada turma (COUNT sobre votos,
// não o contador desnormalizado). Empates são resolvidos pela turma criada
// primeiro, depois pelo id.
func (s *PostgresStore) ContagemPorTurma(ctx context.Context) ([]TurmaContagem, error) {
	return contagemPorTurma(ctx, s.pool)
}

func contagemPorTurma(ctx context.Context, q consultor) ([]TurmaContagem, error) {
	const query = `
        SELECT t.id, t.nome_turma, t.nome_projeto, t.numero_barraca, t.foto_base64,
               t.foto_url, t.votos_count, t.criado_em, t.atualizado_em, COUNT(v.id) AS votos
        FROM turmas t
        LEFT JOIN votos v ON v.turma_id = t.id
        GROUP BY t.id
        ORDER BY votos DESC, t.criado_em ASC, t.id ASC`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contagens []TurmaContagem
	for rows.Next() {
		var c TurmaContagem
		if err := rows.Scan(
			&c.Turma.ID, &c.Turma.NomeTurma, &c.Turma.NomeProjeto, &c.Turma.NumeroBarraca,
			&c.Turma.FotoBase64, &c.Turma.FotoURL, &c.Turma.VotosCount,
			&c.Turma.CriadoEm, &c.Turma.AtualizadoEm, &c.Votos,
		); err != nil {
			return nil, err
		}
		contagens = append(contagens, c)
	}
	return contagens, rows.Err()
}

// Snapshot lê os agregados dos relatórios numa transação repeatable-read
// somente leitura: os números devolvidos saem todos da mesma visão dos
// dados, mesmo com votos entrando durante a leitura.
func (s *PostgresStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := db.WithTxOpts(ctx, s.pool, opts, func(ctx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM participantes`).Scan(&snap.TotalParticipantes); err != nil {
			return err
		}

		contagens, err := contagemPorTurma(ctx, tx)
		if err != nil {
			return err
		}
		snap.Contagens = contagens

		horarios, err := horariosVotos(ctx, tx)
		if err != nil {
			return err
		}
		snap.HorariosVotos = horarios
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// horariosVotos devolve o timestamp de cada voto, para o histograma horário.
func horariosVotos(ctx context.Context, q consultor) ([]time.Time, error) {
	rows, err := q.Query(ctx, `SELECT criado_em FROM votos ORDER BY criado_em ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var horarios []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		horarios = append(horarios, t)
	}
	return horarios, rows.Err()
}

// GetSenhaAdmin devolve o hash Argon2id da senha administrativa.
func (s *PostgresStore) GetSenhaAdmin(ctx context.Context) (string, error) {
	var hash string
	err := s.pool.QueryRow(ctx, `SELECT senha_hash FROM admin_config WHERE id = 1`).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrSenhaNaoConfigurada
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

// DefinirSenhaAdmin grava um novo hash de senha administrativa.
func (s *PostgresStore) DefinirSenhaAdmin(ctx context.Context, hash string) error {
	const query = `
        INSERT INTO admin_config (id, senha_hash)
        VALUES (1, $1)
        ON CONFLICT (id) DO UPDATE SET senha_hash = EXCLUDED.senha_hash, atualizado_em = now()`

	_, err := s.pool.Exec(ctx, query, hash)
	return err
}

// SeedSenhaAdmin grava o hash apenas se ainda não houver senha configurada.
// Devolve true quando a senha padrão foi criada agora.
func (s *PostgresStore) SeedSenhaAdmin(ctx context.Context, hash string) (bool, error) {
	const query = `
        INSERT INTO admin_config (id, senha_hash)
        VALUES (1, $1)
        ON CONFLICT (id) DO NOTHING`

	tag, err := s.pool.Exec(ctx, query, hash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanParticipante(row pgx.Row) (*Participante, error) {
	var p Participante
	if err := row.Scan(&p.ID, &p.Nome, &p.CPF, &p.Telefone, &p.FaceImage, &p.LGPDAceito, &p.LGPDAceitoEm, &p.JaVotou, &p.CriadoEm); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanTurma(row pgx.Row) (*Turma, error) {
	var t Turma
	if err := row.Scan(&t.ID, &t.NomeTurma, &t.NomeProjeto, &t.NumeroBarraca, &t.FotoBase64, &t.FotoURL, &t.VotosCount, &t.CriadoEm, &t.AtualizadoEm); err != nil {
		return nil, err
	}
	return &t, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
