// Package seed creates demo students, resolvers and issues through the
// services, so every seeded record passes the same validation as API input.
// It is meant for development databases only.
package seed

import (
	"context"
	"fmt"
	"strconv"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"

	"github.com/spec-kit/hostres/internal/domain"
	"github.com/spec-kit/hostres/internal/policy"
	"github.com/spec-kit/hostres/internal/service"
)

// DemoPassword is shared by every seeded account.
const DemoPassword = "password123"

// Designations used for seeded resolvers and issue routing.
var Designations = []string{"plumbing", "electrical", "carpentry", "housekeeping", "mess"}

var blocks = []string{"A", "B", "C", "D"}

var complaints = []string{
	"Leaking tap in washroom",
	"Tube light not working",
	"Broken cupboard hinge",
	"Corridor not cleaned",
	"Food served cold at dinner",
	"Water cooler out of order",
	"Ceiling fan making noise",
	"Window latch broken",
}

// Options controls how much data is created.
type Options struct {
	Students         int
	IssuesPerStudent int
	Seed             int64
}

// Result summarizes a seeding run.
type Result struct {
	Students  []domain.UserSummary
	Resolvers []domain.UserSummary
	Issues    int
}

// Seeder writes demo data.
type Seeder struct {
	auth   *service.AuthService
	issues *service.IssueService
	faker  *gofakeit.Faker
	logger *zap.Logger
}

// NewSeeder returns a seeder. A zero seed picks a random one.
func NewSeeder(auth *service.AuthService, issues *service.IssueService, seed int64, logger *zap.Logger) *Seeder {
	return &Seeder{auth: auth, issues: issues, faker: gofakeit.New(seed), logger: logger}
}

// Run creates one resolver per designation, the requested students, and their issues.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{}

	for i, designation := range Designations {
		d := designation
		user, err := s.auth.Register(ctx, service.RegisterInput{
			Name:        s.faker.Name(),
			Email:       fmt.Sprintf("resolver%d.%s@hostel.test", i+1, d),
			Password:    DemoPassword,
			Role:        domain.RoleResolver,
			Designation: &d,
		})
		if err != nil {
			return nil, fmt.Errorf("seed resolver %s: %w", d, err)
		}
		res.Resolvers = append(res.Resolvers, user.User)
	}

	for i := 0; i < opts.Students; i++ {
		user, err := s.auth.Register(ctx, service.RegisterInput{
			Name:     s.faker.Name(),
			Email:    fmt.Sprintf("student%d@hostel.test", i+1),
			Password: DemoPassword,
			Role:     domain.RoleStudent,
		})
		if err != nil {
			return nil, fmt.Errorf("seed student %d: %w", i+1, err)
		}
		res.Students = append(res.Students, user.User)

		caller := domain.Identity{UserID: user.User.ID, Role: domain.RoleStudent}
		for j := 0; j < opts.IssuesPerStudent; j++ {
			if _, err := s.issues.Create(ctx, caller, s.newIssue()); err != nil {
				return nil, fmt.Errorf("seed issue for student %d: %w", i+1, err)
			}
			res.Issues++
		}
	}

	s.logger.Info("seed complete",
		zap.Int("resolvers", len(res.Resolvers)),
		zap.Int("students", len(res.Students)),
		zap.Int("issues", res.Issues))
	return res, nil
}

func (s *Seeder) newIssue() policy.NewIssue {
	return policy.NewIssue{
		Description: s.faker.RandomString(complaints),
		ConcernTo:   s.faker.RandomString(Designations),
		Status:      domain.IssueStatusPending,
		Floor:       strconv.Itoa(s.faker.Number(0, 6)),
		HostelBlock: s.faker.RandomString(blocks),
		IsPrivate:   s.faker.Number(1, 5) == 1,
	}
}
