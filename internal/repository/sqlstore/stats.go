package sqlstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/volunteer-connect/internal/model"
	"github.com/sakif/volunteer-connect/internal/repository"
)

var _ repository.StatsRepository = (*StatsStore)(nil)

type StatsStore struct {
	db *DB
}

type groupCount struct {
	Key   string `db:"k"`
	Count int    `db:"n"`
}

func (s *StatsStore) Stats(ctx context.Context) (*model.PlatformStats, error) {
	st := &model.PlatformStats{
		Users:        map[model.Role]int{},
		NGOs:         map[model.NGOStatus]int{},
		Applications: map[model.ApplicationStatus]int{},
	}
	for _, r := range model.Roles {
		st.Users[r] = 0
	}
	for _, ns := range []model.NGOStatus{model.NGOPending, model.NGOApproved, model.NGORejected} {
		st.NGOs[ns] = 0
	}
	for _, as := range []model.ApplicationStatus{model.ApplicationPending, model.ApplicationApproved, model.ApplicationRejected} {
		st.Applications[as] = 0
	}

	users, err := s.groupBy(ctx, "users", "role")
	if err != nil {
		return nil, err
	}
	for _, g := range users {
		st.Users[model.Role(g.Key)] = g.Count
		st.TotalUsers += g.Count
	}

	ngos, err := s.groupBy(ctx, "ngo_profiles", "status")
	if err != nil {
		return nil, err
	}
	for _, g := range ngos {
		st.NGOs[model.NGOStatus(g.Key)] = g.Count
	}

	apps, err := s.groupBy(ctx, "volunteer_applications", "status")
	if err != nil {
		return nil, err
	}
	for _, g := range apps {
		st.Applications[model.ApplicationStatus(g.Key)] = g.Count
	}

	counts := []struct {
		dst   *int
		query sq.SelectBuilder
	}{
		{&st.Events, s.db.sb.Select("COUNT(*)").From("events")},
		{&st.RSVPs, s.db.sb.Select("COUNT(*)").From("event_attendees").Where(sq.Eq{"status": string(model.Attending)})},
		{&st.Opportunities, s.db.sb.Select("COUNT(*)").From("volunteer_opportunities")},
		{&st.TotalHours, s.db.sb.Select("COALESCE(SUM(hours_worked), 0)").From("volunteer_applications").
			Where(sq.Eq{"status": string(model.ApplicationApproved)})},
	}
	for _, c := range counts {
		if err := get(ctx, s.db.conn, c.dst, c.query); err != nil {
			return nil, fmt.Errorf("sqlstore: computing stats: %w", err)
		}
	}

	return st, nil
}

func (s *StatsStore) groupBy(ctx context.Context, table, column string) ([]groupCount, error) {
	var out []groupCount
	err := selectAll(ctx, s.db.conn, &out, s.db.sb.
		Select(column+" AS k", "COUNT(*) AS n").
		From(table).
		GroupBy(column))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: counting %s by %s: %w", table, column, err)
	}
	return out, nil
}
