package main

import (
	"github.com/vulnreport/api/internal/infra/postgres"
	"github.com/vulnreport/api/pkg/domain/finding"
	"github.com/vulnreport/api/pkg/domain/host"
	"github.com/vulnreport/api/pkg/domain/organization"
	"github.com/vulnreport/api/pkg/domain/report"
)

// Repositories holds all repository implementations.
type Repositories struct {
	Organization organization.Repository
	Report       report.Repository
	Host         host.Repository
	Finding      finding.Repository
	Dashboard    *postgres.DashboardRepository
}

// NewRepositories creates all repositories backed by PostgreSQL.
func NewRepositories(db *postgres.DB) *Repositories {
	return &Repositories{
		Organization: postgres.NewOrganizationRepository(db),
		Report:       postgres.NewReportRepository(db),
		Host:         postgres.NewHostRepository(db),
		Finding:      postgres.NewFindingRepository(db),
		Dashboard:    postgres.NewDashboardRepository(db),
	}
}
