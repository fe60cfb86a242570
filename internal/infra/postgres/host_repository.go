package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/vulnreport/api/pkg/domain/host"
	"github.com/vulnreport/api/pkg/domain/shared"
)

// HostRepository implements host.Repository backed by PostgreSQL.
type HostRepository struct {
	db *DB
}

// NewHostRepository creates a new host repository.
func NewHostRepository(db *DB) *HostRepository {
	return &HostRepository{db: db}
}

// CreateBatch persists all hosts in one multi-row insert.
func (r *HostRepository) CreateBatch(ctx context.Context, hosts []*host.Host) error {
	if len(hosts) == 0 {
		return nil
	}

	const fieldCount = 5
	placeholders := make([]string, 0, len(hosts))
	args := make([]any, 0, len(hosts)*fieldCount)

	for i, h := range hosts {
		base := i * fieldCount
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5))
		args = append(args,
			h.ID.String(),
			h.ReportID.String(),
			h.IPAddress,
			h.Hostname,
			h.ScanStatus,
		)
	}

	query := `
		INSERT INTO hosts (id, report_id, ip_address, hostname, scan_status)
		VALUES ` + strings.Join(placeholders, ", ")

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create hosts: %w", err)
	}

	return nil
}

// UpdateCounts writes the per-host rollup counters.
func (r *HostRepository) UpdateCounts(ctx context.Context, h *host.Host) error {
	query := `
		UPDATE hosts SET
			total_vulnerabilities = $2,
			critical_count = $3,
			high_count = $4,
			medium_count = $5,
			low_count = $6,
			info_count = $7,
			zero_day_count = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		h.ID.String(),
		h.TotalVulnerabilities,
		h.CriticalCount,
		h.HighCount,
		h.MediumCount,
		h.LowCount,
		h.InfoCount,
		h.ZeroDayCount,
	)
	if err != nil {
		return fmt.Errorf("failed to update host counts: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return shared.ErrNotFound
	}

	return nil
}

// ListByReport returns all hosts of a report ordered by IP address.
func (r *HostRepository) ListByReport(ctx context.Context, reportID shared.ID) ([]*host.Host, error) {
	query := `
		SELECT id, report_id, ip_address, hostname, scan_status,
			total_vulnerabilities, critical_count, high_count,
			medium_count, low_count, info_count, zero_day_count
		FROM hosts
		WHERE report_id = $1
		ORDER BY ip_address
	`

	rows, err := r.db.QueryContext(ctx, query, reportID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list hosts: %w", err)
	}
	defer rows.Close()

	var hosts []*host.Host
	for rows.Next() {
		var (
			h           host.Host
			idStr       string
			reportIDStr string
		)

		err := rows.Scan(
			&idStr, &reportIDStr, &h.IPAddress, &h.Hostname, &h.ScanStatus,
			&h.TotalVulnerabilities, &h.CriticalCount, &h.HighCount,
			&h.MediumCount, &h.LowCount, &h.InfoCount, &h.ZeroDayCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan host: %w", err)
		}

		id, err := shared.IDFromString(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid host id: %w", err)
		}
		repID, err := shared.IDFromString(reportIDStr)
		if err != nil {
			return nil, fmt.Errorf("invalid host report id: %w", err)
		}
		h.ID = id
		h.ReportID = repID

		hosts = append(hosts, &h)
	}
	return hosts, rows.Err()
}
