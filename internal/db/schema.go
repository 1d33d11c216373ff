package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema garante as tabelas da votação. Executado a cada start; todas as
// instruções são idempotentes.
const schema = `
CREATE TABLE IF NOT EXISTS participantes (
    id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    nome           TEXT NOT NULL,
    cpf            CHAR(11) NOT NULL UNIQUE,
    telefone       TEXT NOT NULL,
    face_image     TEXT NOT NULL,
    lgpd_aceito    BOOLEAN NOT NULL DEFAULT FALSE,
    lgpd_aceito_em TIMESTAMPTZ,
    ja_votou       BOOLEAN NOT NULL DEFAULT FALSE,
    criado_em      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS turmas (
    id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    nome_turma     TEXT NOT NULL,
    nome_projeto   TEXT NOT NULL,
    numero_barraca TEXT NOT NULL,
    foto_base64    TEXT NOT NULL,
    foto_url       TEXT,
    votos_count    INTEGER NOT NULL DEFAULT 0 CHECK (votos_count >= 0),
    criado_em      TIMESTAMPTZ NOT NULL DEFAULT now(),
    atualizado_em  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS votos (
    id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    participante_id UUID NOT NULL UNIQUE REFERENCES participantes (id),
    turma_id        UUID NOT NULL REFERENCES turmas (id),
    criado_em       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS votos_turma_idx ON votos (turma_id);
CREATE INDEX IF NOT EXISTS votos_criado_em_idx ON votos (criado_em);

CREATE TABLE IF NOT EXISTS admin_config (
    id            SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
    senha_hash    TEXT NOT NULL,
    criado_em     TIMESTAMPTZ NOT NULL DEFAULT now(),
    atualizado_em TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate aplica o schema no banco configurado.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
