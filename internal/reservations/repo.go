package reservations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("reservation not found")

type Repository interface {
	Create(ctx context.Context, r *Reservation) error
	GetByID(ctx context.Context, id string) (*Reservation, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Reservation, error)
	ListAll(ctx context.Context, status Status) ([]Reservation, error)
	SetStatus(ctx context.Context, id string, st Status) (*Reservation, error)
}

type PGRepo struct{ DB *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{DB: db} }

func (r *PGRepo) Create(ctx context.Context, res *Reservation) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if res.Status == "" {
		res.Status = StatusPending
	}
	return r.DB.QueryRow(ctx, `
		INSERT INTO reservations (id, customer_id, reservation_date, number_of_people, status, special_requests, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW())
		RETURNING created_at, updated_at
	`, res.ID, res.CustomerID, res.ReservationDate, res.NumberOfPeople, res.Status, res.SpecialRequests).
		Scan(&res.CreatedAt, &res.UpdatedAt)
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := r.DB.QueryRow(ctx, `
		SELECT id, customer_id, reservation_date, number_of_people, status, special_requests, created_at, updated_at
		FROM reservations WHERE id=$1
	`, id)
	res, err := scan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return res, err
}

func (r *PGRepo) ListByCustomer(ctx context.Context, customerID string) ([]Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.DB.Query(ctx, `
		SELECT id, customer_id, reservation_date, number_of_people, status, special_requests, created_at, updated_at
		FROM reservations WHERE customer_id=$1
		ORDER BY reservation_date DESC
	`, customerID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *PGRepo) ListAll(ctx context.Context, status Status) ([]Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.DB.Query(ctx, `
		SELECT id, customer_id, reservation_date, number_of_people, status, special_requests, created_at, updated_at
		FROM reservations WHERE ($1 = '' OR status = $1)
		ORDER BY reservation_date DESC
	`, string(status))
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Reservation, error) {
	defer rows.Close()
	var out []Reservation
	for rows.Next() {
		res, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

func (r *PGRepo) SetStatus(ctx context.Context, id string, st Status) (*Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.DB.Exec(ctx, `UPDATE reservations SET status=$2, updated_at=NOW() WHERE id=$1`, id, st)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func scan(row pgx.Row) (*Reservation, error) {
	var res Reservation
	if err := row.Scan(&res.ID, &res.CustomerID, &res.ReservationDate, &res.NumberOfPeople,
		&res.Status, &res.SpecialRequests, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}
	return &res, nil
}
