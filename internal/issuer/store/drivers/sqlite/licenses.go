package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/tabwave/keygate/internal/issuer/domain"
)

type licensesRepo struct {
	db dbtx
}

const upsertLicenseSQL = `
INSERT INTO licenses (jti, hwid, plan, note, issued_at, expires_at, issuer_ip)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (jti) DO UPDATE SET
    hwid       = excluded.hwid,
    plan       = excluded.plan,
    note       = excluded.note,
    issued_at  = excluded.issued_at,
    expires_at = excluded.expires_at,
    issuer_ip  = excluded.issuer_ip
`

func (r *licensesRepo) UpsertLicense(ctx context.Context, l domain.License) error {
	_, err := r.db.ExecContext(ctx, upsertLicenseSQL,
		l.JTI, l.HWID, l.Plan, l.Note,
		l.IssuedAt.Unix(), l.ExpiresAt.Unix(), l.IssuerIP,
	)
	return err
}

// UpsertRevocation records a revocation. Re-revoking a JTI updates the
// timestamp and admin in place; there is never more than one row per JTI.
const upsertRevocationSQL = `
INSERT INTO revocations (jti, revoked_at, revoked_by)
VALUES (?, ?, ?)
ON CONFLICT (jti) DO UPDATE SET
    revoked_at = excluded.revoked_at,
    revoked_by = excluded.revoked_by
`

func (r *licensesRepo) UpsertRevocation(ctx context.Context, rev domain.Revocation) error {
	_, err := r.db.ExecContext(ctx, upsertRevocationSQL,
		rev.JTI, rev.RevokedAt.Unix(), rev.Admin,
	)
	return err
}

const getLicenseSQL = `
SELECT l.jti, l.hwid, l.plan, l.note, l.issued_at, l.expires_at, l.issuer_ip,
       r.revoked_at, r.revoked_by
FROM licenses l
LEFT JOIN revocations r ON r.jti = l.jti
WHERE l.jti = ?
`

func (r *licensesRepo) GetLicense(ctx context.Context, jti string) (domain.License, error) {
	row := r.db.QueryRowContext(ctx, getLicenseSQL, jti)

	l, err := scanLicense(row.Scan)
	if err != nil {
		return domain.License{}, mapNotFound(err)
	}
	return l, nil
}

const listLicensesSQL = `
SELECT l.jti, l.hwid, l.plan, l.note, l.issued_at, l.expires_at, l.issuer_ip,
       r.revoked_at, r.revoked_by
FROM licenses l
LEFT JOIN revocations r ON r.jti = l.jti
WHERE (?1 = 0) OR (?2 = 1 AND r.jti IS NOT NULL) OR (?2 = 0 AND r.jti IS NULL)
ORDER BY l.issued_at DESC, l.jti DESC
LIMIT ?3
`

func (r *licensesRepo) ListLicenses(ctx context.Context, filter domain.ListFilter) ([]domain.License, error) {
	filtered := 0
	revoked := 0
	if filter.Revoked != nil {
		filtered = 1
		if *filter.Revoked {
			revoked = 1
		}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.QueryContext(ctx, listLicensesSQL, filtered, revoked, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.License
	for rows.Next() {
		l, err := scanLicense(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// scanLicense maps one joined licenses+revocations row into the domain type.
func scanLicense(scan func(dest ...any) error) (domain.License, error) {
	var (
		l         domain.License
		issuedAt  int64
		expiresAt int64
		revokedAt sql.NullInt64
		revokedBy sql.NullString
	)

	err := scan(&l.JTI, &l.HWID, &l.Plan, &l.Note, &issuedAt, &expiresAt, &l.IssuerIP,
		&revokedAt, &revokedBy)
	if err != nil {
		return domain.License{}, err
	}

	l.IssuedAt = time.Unix(issuedAt, 0).UTC()
	l.ExpiresAt = time.Unix(expiresAt, 0).UTC()

	if revokedAt.Valid {
		l.Revocation = &domain.Revocation{
			JTI:       l.JTI,
			RevokedAt: time.Unix(revokedAt.Int64, 0).UTC(),
			Admin:     revokedBy.String,
		}
	}

	return l, nil
}
