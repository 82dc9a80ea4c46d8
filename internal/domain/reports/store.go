package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type RosterRow struct {
	FirstName  string
	RestOfName string
	Phone      string
	Role       string
	DateJoined time.Time
	IsActive   bool
}

type Headcount struct {
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Staff    int `json:"staff"`
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Headcount(ctx context.Context) (Headcount, error) {
	var hc Headcount
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FILTER (WHERE is_active),
           COUNT(1) FILTER (WHERE NOT is_active),
           COUNT(1) FILTER (WHERE is_staff)
    FROM employees
  `).Scan(&hc.Active, &hc.Inactive, &hc.Staff)
	return hc, err
}

func (s *Store) Roster(ctx context.Context) ([]RosterRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT first_name, rest_of_name, phone_number1, COALESCE(role, ''), date_joined, is_active
    FROM employees
    ORDER BY date_joined, first_name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roster []RosterRow
	for rows.Next() {
		var row RosterRow
		if err := rows.Scan(&row.FirstName, &row.RestOfName, &row.Phone, &row.Role, &row.DateJoined, &row.IsActive); err != nil {
			return nil, err
		}
		roster = append(roster, row)
	}
	return roster, rows.Err()
}
