package pgstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Jordan-sketch-hue/fastforwardwhitelabelservices/pkg/balance"
)

const companyColumns = `
  id,
  name,
  tier,
  status,
  balance::float8,
  geographic_coverage,
  contact_email`

func (s *Store) ListActiveCompanies(ctx context.Context) ([]balance.Company, error) {
	const query = `
SELECT ` + companyColumns + `
FROM companies
WHERE status = 'active'
ORDER BY created_at ASC, id ASC`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]balance.Company, 0)
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Store) GetCompany(ctx context.Context, id uuid.UUID) (*balance.Company, error) {
	const query = `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`

	c, err := scanCompany(s.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, balance.ErrCompanyNotFound
	}
	return c, err
}

func scanCompany(row pgx.Row) (*balance.Company, error) {
	var (
		c      balance.Company
		tier   string
		status string
	)
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&tier,
		&status,
		&c.Balance,
		&c.GeographicCoverage,
		&c.ContactEmail,
	); err != nil {
		return nil, err
	}
	c.Tier = balance.ParseTier(tier)
	c.Status = balance.CompanyStatus(status)
	return &c, nil
}
