package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nfemapa/nfe-extractor-service/internal/models"
)

// Extraction is one archived extraction run.
type Extraction struct {
	ID          uuid.UUID  `json:"id"`
	ArquivoNome string     `json:"arquivo_nome"`
	ArquivoURL  string     `json:"arquivo_url"`
	TotalNotas  int        `json:"total_notas"`
	Municipios  int        `json:"municipios"`
	TotalFrete  float64    `json:"total_frete"`
	UsuarioID   uuid.UUID  `json:"usuario_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// SaveExtraction inserts the run header and its rows in one transaction.
func SaveExtraction(ctx context.Context, orgAlias string, ext *Extraction, rows []models.NotaRow) error {
	schema := GetSchemaForOrg(orgAlias)

	tx, err := Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`
		INSERT INTO %s.extracoes (
			arquivo_nome, arquivo_url, total_notas, municipios, total_frete, usuario_id
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, schema)

	err = tx.QueryRow(ctx, query,
		ext.ArquivoNome, ext.ArquivoURL, ext.TotalNotas, ext.Municipios, ext.TotalFrete, ext.UsuarioID,
	).Scan(&ext.ID, &ext.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert extraction: %w", err)
	}

	rowQuery := fmt.Sprintf(`
		INSERT INTO %s.notas (
			extracao_id, posicao, numero, nome, endereco, bairro, municipio,
			cep, valor_total, quantidade, peso_bruto, telefone, telefone2,
			zona, valor_frete
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, schema)

	for i, r := range rows {
		var frete *float64
		if r.ValorFrete != nil {
			f, _ := r.ValorFrete.Float64()
			frete = &f
		}
		_, err := tx.Exec(ctx, rowQuery,
			ext.ID, i, r.Numero, r.Nome, r.Endereco, r.Bairro, r.Municipio,
			r.CEP, r.ValorTotal, r.Quantidade, r.PesoBruto, r.Telefone, r.Telefone2,
			r.Zona, frete,
		)
		if err != nil {
			return fmt.Errorf("failed to insert nota %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

// GetExtractions returns the most recent runs for an organization.
func GetExtractions(ctx context.Context, orgAlias string, limit int) ([]Extraction, error) {
	schema := GetSchemaForOrg(orgAlias)

	query := fmt.Sprintf(`
		SELECT id, COALESCE(arquivo_nome, ''), COALESCE(arquivo_url, ''),
		       COALESCE(total_notas, 0), COALESCE(municipios, 0), COALESCE(total_frete, 0),
		       COALESCE(usuario_id, '00000000-0000-0000-0000-000000000000'::uuid), created_at
		FROM %s.extracoes
		ORDER BY created_at DESC
		LIMIT $1
	`, schema)

	rows, err := Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var extractions []Extraction
	for rows.Next() {
		var ext Extraction
		err := rows.Scan(
			&ext.ID, &ext.ArquivoNome, &ext.ArquivoURL,
			&ext.TotalNotas, &ext.Municipios, &ext.TotalFrete,
			&ext.UsuarioID, &ext.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		extractions = append(extractions, ext)
	}

	return extractions, nil
}

// GetExtractionByID retrieves a single run header.
func GetExtractionByID(ctx context.Context, orgAlias string, extractionID string) (*Extraction, error) {
	schema := GetSchemaForOrg(orgAlias)

	query := fmt.Sprintf(`
		SELECT id, COALESCE(arquivo_nome, ''), COALESCE(arquivo_url, ''),
		       COALESCE(total_notas, 0), COALESCE(municipios, 0), COALESCE(total_frete, 0),
		       COALESCE(usuario_id, '00000000-0000-0000-0000-000000000000'::uuid), created_at, updated_at
		FROM %s.extracoes
		WHERE id = $1
	`, schema)

	var ext Extraction
	err := Pool.QueryRow(ctx, query, extractionID).Scan(
		&ext.ID, &ext.ArquivoNome, &ext.ArquivoURL,
		&ext.TotalNotas, &ext.Municipios, &ext.TotalFrete,
		&ext.UsuarioID, &ext.CreatedAt, &ext.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ext, nil
}

// GetExtractionRows returns a run's rows in document order.
func GetExtractionRows(ctx context.Context, orgAlias string, extractionID string) ([]models.NotaRow, error) {
	schema := GetSchemaForOrg(orgAlias)

	query := fmt.Sprintf(`
		SELECT COALESCE(numero, ''), COALESCE(nome, ''), COALESCE(endereco, ''),
		       COALESCE(bairro, ''), COALESCE(municipio, ''), COALESCE(cep, ''),
		       COALESCE(valor_total, ''), COALESCE(quantidade, ''), COALESCE(peso_bruto, ''),
		       COALESCE(telefone, ''), COALESCE(telefone2, ''), COALESCE(zona, ''), valor_frete
		FROM %s.notas
		WHERE extracao_id = $1
		ORDER BY posicao
	`, schema)

	rows, err := Pool.Query(ctx, query, extractionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.NotaRow
	for rows.Next() {
		var r models.NotaRow
		var frete *float64
		err := rows.Scan(
			&r.Numero, &r.Nome, &r.Endereco, &r.Bairro, &r.Municipio, &r.CEP,
			&r.ValorTotal, &r.Quantidade, &r.PesoBruto, &r.Telefone, &r.Telefone2,
			&r.Zona, &frete,
		)
		if err != nil {
			return nil, err
		}
		if frete != nil {
			d := decimal.NewFromFloat(*frete)
			r.ValorFrete = &d
		}
		out = append(out, r)
	}

	return out, nil
}

// DeleteExtraction removes a run and its rows.
func DeleteExtraction(ctx context.Context, orgAlias string, extractionID string) error {
	schema := GetSchemaForOrg(orgAlias)

	tx, err := Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s.notas WHERE extracao_id = $1", schema), extractionID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s.extracoes WHERE id = $1", schema), extractionID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// MonthlyStats represents monthly statistics
type MonthlyStats struct {
	Month           string  `json:"month"`
	TotalExtracoes  int     `json:"total_extracoes"`
	TotalNotas      int     `json:"total_notas"`
	TotalFrete      float64 `json:"total_frete"`
	NotasCapital    int     `json:"notas_capital"`
	NotasMetro      int     `json:"notas_metropolitana"`
	NotasOutros     int     `json:"notas_outros"`
}

// GetMonthlyStats returns statistics for the current month
func GetMonthlyStats(ctx context.Context, orgAlias string) (*MonthlyStats, error) {
	schema := GetSchemaForOrg(orgAlias)

	query := fmt.Sprintf(`
		SELECT
			COUNT(DISTINCT e.id) as total_extracoes,
			COUNT(n.extracao_id) as total_notas,
			COALESCE(SUM(n.valor_frete), 0) as total_frete,
			COUNT(*) FILTER (WHERE n.zona = 'Capital') as notas_capital,
			COUNT(*) FILTER (WHERE n.zona = 'Metropolitana') as notas_metro,
			COUNT(*) FILTER (WHERE n.zona = 'Outros') as notas_outros
		FROM %s.extracoes e
		LEFT JOIN %s.notas n ON n.extracao_id = e.id
		WHERE DATE_TRUNC('month', e.created_at) = DATE_TRUNC('month', CURRENT_DATE)
	`, schema, schema)

	stats := &MonthlyStats{
		Month: time.Now().Format("2006-01"),
	}

	err := Pool.QueryRow(ctx, query).Scan(
		&stats.TotalExtracoes,
		&stats.TotalNotas,
		&stats.TotalFrete,
		&stats.NotasCapital,
		&stats.NotasMetro,
		&stats.NotasOutros,
	)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
