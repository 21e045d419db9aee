package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("customer not found")

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Customer, int, error)
	Get(ctx context.Context, id string) (*Customer, error)
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, c *Customer) error
	SoftDelete(ctx context.Context, id string) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const customerColumns = `id, name, mobile, email, address, landmark, gstin, contact_person,
	city, state, region, pincode, delivery_address, delivery_landmark, delivery_city,
	delivery_state, delivery_pincode, delivery_same_as_billing, created_at, updated_at, deleted_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(
		&c.ID, &c.Name, &c.Mobile, &c.Email, &c.Address, &c.Landmark, &c.GSTIN, &c.ContactPerson,
		&c.City, &c.State, &c.Region, &c.Pincode, &c.DeliveryAddress, &c.DeliveryLandmark,
		&c.DeliveryCity, &c.DeliveryState, &c.DeliveryPincode, &c.DeliverySameAsBilling,
		&c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Customer, int, error) {
	conditions := []string{"deleted_at IS NULL"}
	var args []interface{}
	argPos := 1

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR mobile ILIKE $%d OR email ILIKE $%d OR city ILIKE $%d OR gstin ILIKE $%d)",
			argPos, argPos, argPos, argPos, argPos))
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}
	if filter.City != "" {
		conditions = append(conditions, fmt.Sprintf("city ILIKE $%d", argPos))
		args = append(args, "%"+filter.City+"%")
		argPos++
	}
	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("state ILIKE $%d", argPos))
		args = append(args, "%"+filter.State+"%")
		argPos++
	}
	if filter.Region != "" {
		conditions = append(conditions, fmt.Sprintf("region = $%d", argPos))
		args = append(args, filter.Region)
		argPos++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM customers %s", where), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		"SELECT %s FROM customers %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		customerColumns, where, argPos, argPos+1,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *repository) Get(ctx context.Context, id string) (*Customer, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM customers WHERE id = $1 AND deleted_at IS NULL", customerColumns), id)
	return scanCustomer(row)
}

func (r *repository) Create(ctx context.Context, c *Customer) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO customers (id, name, mobile, email, address, landmark, gstin, contact_person,
			city, state, region, pincode, delivery_address, delivery_landmark, delivery_city,
			delivery_state, delivery_pincode, delivery_same_as_billing, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		c.ID, c.Name, c.Mobile, c.Email, c.Address, c.Landmark, c.GSTIN, c.ContactPerson,
		c.City, c.State, c.Region, c.Pincode, c.DeliveryAddress, c.DeliveryLandmark,
		c.DeliveryCity, c.DeliveryState, c.DeliveryPincode, c.DeliverySameAsBilling,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("customers: create: %w", err)
	}
	return nil
}

func (r *repository) Update(ctx context.Context, c *Customer) error {
	c.UpdatedAt = time.Now()
	tag, err := r.pool.Exec(ctx, `
		UPDATE customers SET name = $1, mobile = $2, email = $3, address = $4, landmark = $5,
			gstin = $6, contact_person = $7, city = $8, state = $9, region = $10, pincode = $11,
			delivery_address = $12, delivery_landmark = $13, delivery_city = $14,
			delivery_state = $15, delivery_pincode = $16, delivery_same_as_billing = $17,
			updated_at = $18
		WHERE id = $19 AND deleted_at IS NULL`,
		c.Name, c.Mobile, c.Email, c.Address, c.Landmark, c.GSTIN, c.ContactPerson,
		c.City, c.State, c.Region, c.Pincode, c.DeliveryAddress, c.DeliveryLandmark,
		c.DeliveryCity, c.DeliveryState, c.DeliveryPincode, c.DeliverySameAsBilling,
		c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("customers: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE customers SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL", id)
	if err != nil {
		return fmt.Errorf("customers: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
