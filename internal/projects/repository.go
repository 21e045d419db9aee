package projects

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecstatics-spaces/backoffice/internal/platform/db"
)

var ErrNotFound = errors.New("project not found")

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Project, int, error)
	Get(ctx context.Context, id string) (*Project, error)
	ProjectNoExists(ctx context.Context, projectNo string) (bool, error)
	Create(ctx context.Context, p *Project, items []ProjectItem) error
	Update(ctx context.Context, p *Project, items []ProjectItem) error
	UpdateStatus(ctx context.Context, id string, status Status) error
	SoftDelete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*Stats, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const projectColumns = `p.id, p.project_no, p.date, p.customer_id, p.sales_person_id,
	p.subtotal, p.total_discount, p.igst, p.cgst, p.sgst, p.grand_total, p.grand_total_with_gst,
	p.project_name, p.delivery_address, p.delivery_landmark, p.delivery_city, p.delivery_state,
	p.delivery_pincode, p.status, p.created_at, p.updated_at, p.deleted_at`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	err := row.Scan(
		&p.ID, &p.ProjectNo, &p.Date, &p.CustomerID, &p.SalesPersonID,
		&p.Subtotal, &p.TotalDiscount, &p.IGST, &p.CGST, &p.SGST, &p.GrandTotal, &p.GrandTotalWithGST,
		&p.ProjectName, &p.DeliveryAddress, &p.DeliveryLandmark, &p.DeliveryCity, &p.DeliveryState,
		&p.DeliveryPincode, &p.Status, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Project, int, error) {
	conditions := []string{"p.deleted_at IS NULL"}
	var args []interface{}
	argPos := 1

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(p.project_no ILIKE $%d OR p.project_name ILIKE $%d OR c.name ILIKE $%d)",
			argPos, argPos, argPos))
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", argPos))
		args = append(args, *filter.Status)
		argPos++
	}
	if filter.CustomerID != "" {
		conditions = append(conditions, fmt.Sprintf("p.customer_id = $%d", argPos))
		args = append(args, filter.CustomerID)
		argPos++
	}
	if filter.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("p.date >= $%d", argPos))
		args = append(args, *filter.StartDate)
		argPos++
	}
	if filter.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("p.date <= $%d", argPos))
		args = append(args, *filter.EndDate)
		argPos++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")
	join := "LEFT JOIN customers c ON c.id = p.customer_id"

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM projects p %s %s", join, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s, c.id, c.name, c.mobile, c.email, c.city, c.state, c.gstin
		FROM projects p %s %s
		ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d`,
		projectColumns, join, where, argPos, argPos+1,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		var cust CustomerSummary
		var custID *string
		err := rows.Scan(
			&p.ID, &p.ProjectNo, &p.Date, &p.CustomerID, &p.SalesPersonID,
			&p.Subtotal, &p.TotalDiscount, &p.IGST, &p.CGST, &p.SGST, &p.GrandTotal, &p.GrandTotalWithGST,
			&p.ProjectName, &p.DeliveryAddress, &p.DeliveryLandmark, &p.DeliveryCity, &p.DeliveryState,
			&p.DeliveryPincode, &p.Status, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
			&custID, &cust.Name, &cust.Mobile, &cust.Email, &cust.City, &cust.State, &cust.GSTIN,
		)
		if err != nil {
			return nil, 0, err
		}
		if custID != nil {
			cust.ID = *custID
			p.Customer = &cust
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *repository) Get(ctx context.Context, id string) (*Project, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM projects p WHERE p.id = $1 AND p.deleted_at IS NULL", projectColumns), id)
	p, err := scanProject(row)
	if err != nil {
		return nil, err
	}

	if err := r.hydrate(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repository) hydrate(ctx context.Context, p *Project) error {
	var cust CustomerSummary
	err := r.pool.QueryRow(ctx,
		"SELECT id, name, mobile, email, city, state, gstin FROM customers WHERE id = $1", p.CustomerID,
	).Scan(&cust.ID, &cust.Name, &cust.Mobile, &cust.Email, &cust.City, &cust.State, &cust.GSTIN)
	if err == nil {
		p.Customer = &cust
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	if p.SalesPersonID != nil {
		var sp PersonSummary
		err := r.pool.QueryRow(ctx,
			"SELECT id, name, email FROM users WHERE id = $1", *p.SalesPersonID,
		).Scan(&sp.ID, &sp.Name, &sp.Email)
		if err == nil {
			p.SalesPerson = &sp
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
	}

	items, err := r.itemsFor(ctx, p.ID)
	if err != nil {
		return err
	}
	p.Items = items
	return nil
}

func (r *repository) itemsFor(ctx context.Context, projectID string) ([]ProjectItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, project_quotation_no, quotation_id, quotation_code, quotation_name,
			description, special_note, images, wood_id, wood_name, polish_id, polish_name,
			fabric_id, fabric_name, length_mm, width_mm, base_price, discount_percent,
			discount_amount, final_price, quantity, total, gst_percent, igst, cgst, sgst,
			total_with_gst, notes, sort_order, created_at, updated_at
		FROM project_items
		WHERE project_id = $1
		ORDER BY sort_order ASC, created_at ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ProjectItem
	for rows.Next() {
		var it ProjectItem
		var images, notes []byte
		err := rows.Scan(
			&it.ID, &it.ProjectID, &it.ProjectQuotationNo, &it.QuotationID, &it.QuotationCode, &it.QuotationName,
			&it.Description, &it.SpecialNote, &images, &it.WoodID, &it.WoodName, &it.PolishID, &it.PolishName,
			&it.FabricID, &it.FabricName, &it.LengthMM, &it.WidthMM, &it.BasePrice, &it.DiscountPercent,
			&it.DiscountAmount, &it.FinalPrice, &it.Quantity, &it.Total, &it.GSTPercent, &it.IGST, &it.CGST, &it.SGST,
			&it.TotalWithGST, &notes, &it.SortOrder, &it.CreatedAt, &it.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if len(images) > 0 {
			if err := json.Unmarshal(images, &it.Images); err != nil {
				return nil, fmt.Errorf("projects: decode item images: %w", err)
			}
		}
		if len(notes) > 0 {
			if err := json.Unmarshal(notes, &it.Notes); err != nil {
				return nil, fmt.Errorf("projects: decode item notes: %w", err)
			}
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) ProjectNoExists(ctx context.Context, projectNo string) (bool, error) {
	// Soft-deleted rows still occupy their number.
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM projects WHERE project_no = $1)", projectNo,
	).Scan(&exists)
	return exists, err
}

func (r *repository) Create(ctx context.Context, p *Project, items []ProjectItem) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO projects (id, project_no, date, customer_id, sales_person_id,
				subtotal, total_discount, igst, cgst, sgst, grand_total, grand_total_with_gst,
				project_name, delivery_address, delivery_landmark, delivery_city, delivery_state,
				delivery_pincode, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
			p.ID, p.ProjectNo, p.Date, p.CustomerID, p.SalesPersonID,
			p.Subtotal, p.TotalDiscount, p.IGST, p.CGST, p.SGST, p.GrandTotal, p.GrandTotalWithGST,
			p.ProjectName, p.DeliveryAddress, p.DeliveryLandmark, p.DeliveryCity, p.DeliveryState,
			p.DeliveryPincode, p.Status, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("projects: insert project: %w", err)
		}
		return insertItems(ctx, tx, p.ID, items)
	})
}

func (r *repository) Update(ctx context.Context, p *Project, items []ProjectItem) error {
	p.UpdatedAt = time.Now()

	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE projects SET date = $1, customer_id = $2, sales_person_id = $3,
				subtotal = $4, total_discount = $5, igst = $6, cgst = $7, sgst = $8,
				grand_total = $9, grand_total_with_gst = $10, project_name = $11,
				delivery_address = $12, delivery_landmark = $13, delivery_city = $14,
				delivery_state = $15, delivery_pincode = $16, updated_at = $17
			WHERE id = $18 AND deleted_at IS NULL`,
			p.Date, p.CustomerID, p.SalesPersonID,
			p.Subtotal, p.TotalDiscount, p.IGST, p.CGST, p.SGST,
			p.GrandTotal, p.GrandTotalWithGST, p.ProjectName,
			p.DeliveryAddress, p.DeliveryLandmark, p.DeliveryCity,
			p.DeliveryState, p.DeliveryPincode, p.UpdatedAt, p.ID,
		)
		if err != nil {
			return fmt.Errorf("projects: update project: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		if _, err := tx.Exec(ctx, "DELETE FROM project_items WHERE project_id = $1", p.ID); err != nil {
			return fmt.Errorf("projects: clear items: %w", err)
		}
		return insertItems(ctx, tx, p.ID, items)
	})
}

func insertItems(ctx context.Context, tx pgx.Tx, projectID string, items []ProjectItem) error {
	now := time.Now()
	for i := range items {
		it := &items[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.ProjectID = projectID
		it.CreatedAt = now
		it.UpdatedAt = now

		images, err := json.Marshal(orEmpty(it.Images))
		if err != nil {
			return err
		}
		notes, err := json.Marshal(orEmpty(it.Notes))
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO project_items (id, project_id, project_quotation_no, quotation_id,
				quotation_code, quotation_name, description, special_note, images,
				wood_id, wood_name, polish_id, polish_name, fabric_id, fabric_name,
				length_mm, width_mm, base_price, discount_percent, discount_amount, final_price,
				quantity, total, gst_percent, igst, cgst, sgst, total_with_gst, notes,
				sort_order, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
				$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32)`,
			it.ID, it.ProjectID, it.ProjectQuotationNo, it.QuotationID,
			it.QuotationCode, it.QuotationName, it.Description, it.SpecialNote, images,
			it.WoodID, it.WoodName, it.PolishID, it.PolishName, it.FabricID, it.FabricName,
			it.LengthMM, it.WidthMM, it.BasePrice, it.DiscountPercent, it.DiscountAmount, it.FinalPrice,
			it.Quantity, it.Total, it.GSTPercent, it.IGST, it.CGST, it.SGST, it.TotalWithGST, notes,
			it.SortOrder, it.CreatedAt, it.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("projects: insert item %d: %w", i, err)
		}
	}
	return nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (r *repository) UpdateStatus(ctx context.Context, id string, status Status) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE projects SET status = $1, updated_at = now() WHERE id = $2 AND deleted_at IS NULL",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("projects: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM project_items WHERE project_id = $1", id); err != nil {
			return fmt.Errorf("projects: delete items: %w", err)
		}
		tag, err := tx.Exec(ctx,
			"UPDATE projects SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL", id)
		if err != nil {
			return fmt.Errorf("projects: delete project: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *repository) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'draft'),
			COUNT(*) FILTER (WHERE status = 'sent'),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'expired'),
			COALESCE(SUM(grand_total_with_gst), 0),
			COALESCE(SUM(grand_total_with_gst) FILTER (WHERE status = 'approved'), 0)
		FROM projects
		WHERE deleted_at IS NULL`,
	).Scan(&s.TotalProjects, &s.DraftCount, &s.SentCount, &s.ApprovedCount, &s.ExpiredCount,
		&s.TotalValue, &s.ApprovedValue)
	if err != nil {
		return nil, fmt.Errorf("projects: stats: %w", err)
	}
	return &s, nil
}
