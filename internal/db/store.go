package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/servicer-desk/backend/internal/models"
	"github.com/servicer-desk/backend/internal/utils"
)

type Store struct {
	Pool *pgxpool.Pool
}

// New connects to storeURL. A non-empty key replaces the password in the URL.
func New(ctx context.Context, storeURL, key string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(storeURL)
	if err != nil {
		return nil, err
	}
	if key != "" {
		cfg.ConnConfig.Password = key
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

const taskColumns = `
	t.id::text, t.sub_category_id::text, t.name, t.status, t.custom_status, t.notes,
	t.started_at, t.last_updated, t.completed_at, t.updated_by::text, t.communicated,
	t.communication_method, t.no_comm_reason, t.money_saved::float8, t.created_at,
	sc.id::text, sc.category_id::text, sc.name, sc.status, sc.overall_status, sc.money_saved::float8,
	sc.bundle_group, sc.bundle_name, sc.is_complete, sc.completed_at, sc.last_update,
	c.id::text, c.customer_phone, c.name, c.status, c.start_time, c.last_update,
	cu.phone, cu.display_name, cu.email, cu.assigned_to::text, cu.flags,
	cu.last_contact_at, cu.last_contact_method, cu.last_email_contact, cu.last_message_at`

const taskJoins = `
	LEFT JOIN sub_categories sc ON sc.id = t.sub_category_id
	LEFT JOIN categories c ON c.id = sc.category_id
	LEFT JOIN tbl_customer cu ON cu.phone = c.customer_phone`

const phoneExpr = `regexp_replace(c.customer_phone, '[[:space:]()-]', '', 'g')`

// scanTask reads one row of taskColumns (plus any leading dest values).
// ok is false when the row carries no task, as happens for an audit row
// whose task was deleted.
func scanTask(row scanner, lead ...any) (models.Task, bool, error) {
	var (
		tID, tSubID, tName, tStatus, tCustom, tNotes *string
		tStarted, tLastUpd, tCompleted               *time.Time
		tUpdatedBy                                   *string
		tComm                                        *bool
		tCommMethod, tNoComm                         *string
		tMoney                                       *float64
		tCreated                                     *time.Time

		scID, scCatID, scName, scStatus, scOverall *string
		scMoney                                    *float64
		scBundleGroup, scBundleName                *string
		scComplete                                 *bool
		scCompletedAt, scLastUpdate                *time.Time

		cID, cPhone, cName, cStatus *string
		cStart, cLastUpdate         *time.Time

		cuPhone, cuName, cuEmail, cuAssigned *string
		cuFlags                              []string
		cuLastContact                        *time.Time
		cuLastMethod                         *string
		cuLastEmail, cuLastMessage           *time.Time
	)
	dest := append(lead,
		&tID, &tSubID, &tName, &tStatus, &tCustom, &tNotes,
		&tStarted, &tLastUpd, &tCompleted, &tUpdatedBy, &tComm,
		&tCommMethod, &tNoComm, &tMoney, &tCreated,
		&scID, &scCatID, &scName, &scStatus, &scOverall, &scMoney,
		&scBundleGroup, &scBundleName, &scComplete, &scCompletedAt, &scLastUpdate,
		&cID, &cPhone, &cName, &cStatus, &cStart, &cLastUpdate,
		&cuPhone, &cuName, &cuEmail, &cuAssigned, &cuFlags,
		&cuLastContact, &cuLastMethod, &cuLastEmail, &cuLastMessage,
	)
	if err := row.Scan(dest...); err != nil {
		return models.Task{}, false, err
	}
	if tID == nil {
		return models.Task{}, false, nil
	}

	t := models.Task{
		ID:                  *tID,
		SubCategoryID:       derefString(tSubID),
		Name:                derefString(tName),
		Status:              derefString(tStatus),
		CustomStatus:        derefString(tCustom),
		Notes:               derefString(tNotes),
		StartedAt:           tStarted,
		LastUpdated:         tLastUpd,
		CompletedAt:         tCompleted,
		UpdatedBy:           derefString(tUpdatedBy),
		Communicated:        derefBool(tComm),
		CommunicationMethod: derefString(tCommMethod),
		NoCommReason:        derefString(tNoComm),
		MoneySaved:          derefFloat(tMoney),
	}
	if tCreated != nil {
		t.CreatedAt = *tCreated
	}
	if scID == nil {
		return t, true, nil
	}
	t.SubCategory = &models.SubCategory{
		ID:            *scID,
		CategoryID:    derefString(scCatID),
		Name:          derefString(scName),
		Status:        derefString(scStatus),
		OverallStatus: derefString(scOverall),
		MoneySaved:    derefFloat(scMoney),
		BundleGroup:   derefString(scBundleGroup),
		BundleName:    derefString(scBundleName),
		IsComplete:    derefBool(scComplete),
		CompletedAt:   scCompletedAt,
		LastUpdate:    scLastUpdate,
	}
	if cID == nil {
		return t, true, nil
	}
	t.SubCategory.Category = &models.Category{
		ID:            *cID,
		CustomerPhone: derefString(cPhone),
		Name:          derefString(cName),
		Status:        derefString(cStatus),
		StartTime:     cStart,
		LastUpdate:    cLastUpdate,
	}
	if cuPhone == nil {
		return t, true, nil
	}
	t.SubCategory.Category.Customer = &models.Customer{
		Phone:             *cuPhone,
		DisplayName:       derefString(cuName),
		Email:             derefString(cuEmail),
		AssignedTo:        derefString(cuAssigned),
		Flags:             nonNil(cuFlags),
		LastContactAt:     cuLastContact,
		LastContactMethod: derefString(cuLastMethod),
		LastEmailContact:  cuLastEmail,
		LastMessageAt:     cuLastMessage,
	}
	return t, true, nil
}

// FetchTasks returns tasks with their sub-category, category and customer
// joined, ordered by task id. Filters are applied in SQL.
func (s *Store) FetchTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t` + taskJoins
	var args []any
	var wheres []string
	if filter.ServicerID != "" {
		args = append(args, filter.ServicerID)
		wheres = append(wheres, fmt.Sprintf("cu.assigned_to::text = $%d", len(args)))
	}
	if filter.CustomerPhone != "" {
		args = append(args, utils.NormalizePhone(filter.CustomerPhone))
		wheres = append(wheres, fmt.Sprintf("%s = $%d", phoneExpr, len(args)))
	}
	if filter.StaleBefore != nil {
		args = append(args, *filter.StaleBefore)
		wheres = append(wheres, fmt.Sprintf("t.status <> 'Complete' AND (t.last_updated IS NULL OR t.last_updated < $%d)", len(args)))
	}
	if filter.OpenOnly {
		wheres = append(wheres, "t.status NOT IN ('Complete', 'N/A')")
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY t.id ASC"

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Task{}
	for rows.Next() {
		t, ok, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, t)
		}
	}
	return out, rows.Err()
}

func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks t`+taskJoins+` WHERE t.id::text = $1`, id)
	t, ok, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, models.ErrNotFound
		}
		return models.Task{}, err
	}
	if !ok {
		return models.Task{}, models.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListTeamMembers(ctx context.Context) ([]models.TeamMember, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id::text, name FROM tbl_team_member ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.TeamMember{}
	for rows.Next() {
		var m models.TeamMember
		var name *string
		if err := rows.Scan(&m.ID, &name); err != nil {
			return nil, err
		}
		m.Name = derefString(name)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) FindTeamMemberIDByName(ctx context.Context, name string) (string, error) {
	var id string
	err := s.Pool.QueryRow(ctx, `SELECT id::text FROM tbl_team_member WHERE name = $1 ORDER BY id LIMIT 1`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", models.ErrNotFound
	}
	return id, err
}

const customerColumns = `phone, display_name, email, assigned_to::text, customer_type, notes, description, flags,
	last_contact_at, last_contact_method, last_email_contact, last_message_at, created_at, updated_at`

func scanCustomer(row scanner) (models.Customer, error) {
	var (
		c                                                 models.Customer
		name, email, assigned, ctype, notes, desc, method *string
		created, updated                                  *time.Time
	)
	if err := row.Scan(&c.Phone, &name, &email, &assigned, &ctype, &notes, &desc, &c.Flags,
		&c.LastContactAt, &method, &c.LastEmailContact, &c.LastMessageAt, &created, &updated); err != nil {
		return models.Customer{}, err
	}
	c.DisplayName = derefString(name)
	c.Email = derefString(email)
	c.AssignedTo = derefString(assigned)
	c.CustomerType = derefString(ctype)
	c.Notes = derefString(notes)
	c.Description = derefString(desc)
	c.LastContactMethod = derefString(method)
	c.Flags = nonNil(c.Flags)
	if created != nil {
		c.CreatedAt = *created
	}
	if updated != nil {
		c.UpdatedAt = *updated
	}
	return c, nil
}

// ListCustomers returns all customers, or only those assigned to servicerID.
func (s *Store) ListCustomers(ctx context.Context, servicerID string) ([]models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM tbl_customer`
	var args []any
	if servicerID != "" {
		args = append(args, servicerID)
		query += ` WHERE assigned_to::text = $1`
	}
	query += ` ORDER BY display_name ASC, phone ASC`

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCustomer matches phone ignoring formatting.
func (s *Store) GetCustomer(ctx context.Context, phone string) (models.Customer, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM tbl_customer
		WHERE regexp_replace(phone, '[[:space:]()-]', '', 'g') = $1 LIMIT 1`, utils.NormalizePhone(phone))
	c, err := scanCustomer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Customer{}, models.ErrNotFound
	}
	return c, err
}

// ListDailyUpdates returns audit rows newest first, each with its task chain
// and the updater's name when they resolve.
func (s *Store) ListDailyUpdates(ctx context.Context, filter models.UpdateFilter) ([]models.DailyUpdate, error) {
	query := `SELECT du.id::text, du.task_id::text, du.update_date::text, du.previous_status, du.new_status,
		du.previous_notes, du.new_notes, du.communicated, du.communication_method, du.no_comm_reason,
		du.updated_by::text, tm.name, du.created_at, ` + taskColumns + `
		FROM daily_updates du
		LEFT JOIN tbl_team_member tm ON tm.id = du.updated_by
		LEFT JOIN tasks t ON t.id = du.task_id` + taskJoins
	var args []any
	var wheres []string
	if filter.Date != "" {
		args = append(args, filter.Date)
		wheres = append(wheres, fmt.Sprintf("du.update_date = $%d::date", len(args)))
	}
	if filter.UpdatedBy != "" {
		args = append(args, filter.UpdatedBy)
		wheres = append(wheres, fmt.Sprintf("du.updated_by::text = $%d", len(args)))
	}
	if filter.CustomerPhone != "" {
		args = append(args, utils.NormalizePhone(filter.CustomerPhone))
		wheres = append(wheres, fmt.Sprintf("%s = $%d", phoneExpr, len(args)))
	}
	if filter.CommunicatedOnly {
		wheres = append(wheres, "du.communicated = true")
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY du.created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.DailyUpdate{}
	for rows.Next() {
		var (
			u                                         models.DailyUpdate
			prev, prevNotes, newNotes, method, noComm *string
			updatedBy, updater                        *string
			comm                                      *bool
			created                                   *time.Time
		)
		t, ok, err := scanTask(rows, &u.ID, &u.TaskID, &u.UpdateDate, &prev, &u.NewStatus,
			&prevNotes, &newNotes, &comm, &method, &noComm, &updatedBy, &updater, &created)
		if err != nil {
			return nil, err
		}
		u.PreviousStatus = derefString(prev)
		u.PreviousNotes = derefString(prevNotes)
		u.NewNotes = derefString(newNotes)
		u.Communicated = derefBool(comm)
		u.CommunicationMethod = derefString(method)
		u.NoCommReason = derefString(noComm)
		u.UpdatedBy = derefString(updatedBy)
		u.UpdaterName = derefString(updater)
		if created != nil {
			u.CreatedAt = *created
		}
		if ok {
			task := t
			u.Task = &task
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

const subCategoryColumns = `sc.id::text, sc.category_id::text, sc.name, sc.status, sc.overall_status, sc.money_saved::float8,
	sc.bundle_group, sc.bundle_name, sc.is_complete, sc.completed_at, sc.last_update,
	c.id::text, c.customer_phone, c.name, c.status, c.start_time, c.last_update`

func scanSubCategory(row scanner) (models.SubCategory, error) {
	var (
		sc                           models.SubCategory
		catID, name, status, overall *string
		money                        *float64
		group, bundleName            *string
		complete                     *bool
		cID, cPhone, cName, cStatus  *string
		cStart, cLastUpdate          *time.Time
	)
	if err := row.Scan(&sc.ID, &catID, &name, &status, &overall, &money,
		&group, &bundleName, &complete, &sc.CompletedAt, &sc.LastUpdate,
		&cID, &cPhone, &cName, &cStatus, &cStart, &cLastUpdate); err != nil {
		return models.SubCategory{}, err
	}
	sc.CategoryID = derefString(catID)
	sc.Name = derefString(name)
	sc.Status = derefString(status)
	sc.OverallStatus = derefString(overall)
	sc.MoneySaved = derefFloat(money)
	sc.BundleGroup = derefString(group)
	sc.BundleName = derefString(bundleName)
	sc.IsComplete = derefBool(complete)
	if cID != nil {
		sc.Category = &models.Category{
			ID:            *cID,
			CustomerPhone: derefString(cPhone),
			Name:          derefString(cName),
			Status:        derefString(cStatus),
			StartTime:     cStart,
			LastUpdate:    cLastUpdate,
		}
	}
	return sc, nil
}

// ListSubCategories returns a customer's sub-categories with their
// category and tasks attached.
func (s *Store) ListSubCategories(ctx context.Context, customerPhone string) ([]models.SubCategory, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+subCategoryColumns+`
		FROM sub_categories sc
		JOIN categories c ON c.id = sc.category_id
		WHERE `+phoneExpr+` = $1
		ORDER BY c.name ASC, sc.name ASC, sc.id ASC`, utils.NormalizePhone(customerPhone))
	if err != nil {
		return nil, err
	}
	out := []models.SubCategory{}
	for rows.Next() {
		sc, err := scanSubCategory(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, sc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tasks, err := s.FetchTasks(ctx, models.TaskFilter{CustomerPhone: customerPhone})
	if err != nil {
		return nil, err
	}
	bySub := map[string][]models.Task{}
	for _, t := range tasks {
		t.SubCategory = nil
		bySub[t.SubCategoryID] = append(bySub[t.SubCategoryID], t)
	}
	for i := range out {
		out[i].Tasks = nonNilTasks(bySub[out[i].ID])
	}
	return out, nil
}

func (s *Store) GetSubCategory(ctx context.Context, id string) (models.SubCategory, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+subCategoryColumns+`
		FROM sub_categories sc
		LEFT JOIN categories c ON c.id = sc.category_id
		WHERE sc.id::text = $1`, id)
	sc, err := scanSubCategory(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.SubCategory{}, models.ErrNotFound
	}
	return sc, err
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefBool(v *bool) bool {
	if v == nil {
		return false
	}
	return *v
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilTasks(v []models.Task) []models.Task {
	if v == nil {
		return []models.Task{}
	}
	return v
}
