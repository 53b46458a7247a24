package devserver

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/quickserve/quickserve-go/internal/models"
)

func init() {
	// modernc registers as "sqlite"; teach sqlx its placeholder style.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT NOT NULL UNIQUE,
	full_name TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	hashed_password TEXT NOT NULL,
	role TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS customers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL UNIQUE REFERENCES users(id)
);
CREATE TABLE IF NOT EXISTS providers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL UNIQUE REFERENCES users(id),
	service_type TEXT NOT NULL,
	base_price REAL NOT NULL DEFAULT 0,
	is_online INTEGER NOT NULL DEFAULT 0,
	kyc_status TEXT NOT NULL DEFAULT 'not_submitted',
	bio TEXT NOT NULL DEFAULT '',
	experience_years INTEGER NOT NULL DEFAULT 0,
	city TEXT NOT NULL DEFAULT '',
	address_line TEXT NOT NULL DEFAULT '',
	working_days TEXT NOT NULL DEFAULT '',
	start_time TEXT NOT NULL DEFAULT '09:00',
	end_time TEXT NOT NULL DEFAULT '20:00',
	rating REAL NOT NULL DEFAULT 4.5,
	jobs_completed INTEGER NOT NULL DEFAULT 0,
	last_latitude REAL,
	last_longitude REAL
);
CREATE TABLE IF NOT EXISTS requests (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	customer_id INTEGER NOT NULL REFERENCES customers(id),
	provider_id INTEGER REFERENCES providers(id),
	title TEXT NOT NULL,
	service_type TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	address TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	budget REAL,
	cancel_reason TEXT NOT NULL DEFAULT '',
	customer_lat REAL,
	customer_lng REAL
);
CREATE TABLE IF NOT EXISTS kyc_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	provider_id INTEGER NOT NULL UNIQUE REFERENCES providers(id),
	id_number TEXT NOT NULL,
	address_line TEXT NOT NULL DEFAULT '',
	id_proof_path TEXT NOT NULL DEFAULT '',
	address_proof_path TEXT NOT NULL DEFAULT '',
	profile_photo_path TEXT NOT NULL DEFAULT '',
	rejection_reason TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS reports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	subject TEXT NOT NULL,
	body TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'open',
	reporter TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS settings (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	document TEXT NOT NULL
);
`

// activeStatuses is the set blocking a provider from taking another job.
var activeStatuses = []string{"assigned", "en_route", "arrived", "payment"}

// Store wraps the embedded sqlite database.
type Store struct {
	db *sqlx.DB
}

// OpenStore opens (and creates) the database at path. ":memory:" gives the
// throwaway database the tests run against.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc's driver is not safe for concurrent writes on one
	// connection pool entry; a single connection keeps it simple.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type userRow struct {
	ID             int64  `db:"id"`
	Email          string `db:"email"`
	FullName       string `db:"full_name"`
	Phone          string `db:"phone"`
	HashedPassword string `db:"hashed_password"`
	Role           string `db:"role"`
}

func (r userRow) toModel() models.User {
	return models.User{ID: r.ID, Email: r.Email, FullName: r.FullName, Phone: r.Phone, Role: r.Role}
}

type providerRow struct {
	ID              int64    `db:"id"`
	UserID          int64    `db:"user_id"`
	ServiceType     string   `db:"service_type"`
	BasePrice       float64  `db:"base_price"`
	IsOnline        bool     `db:"is_online"`
	KycStatus       string   `db:"kyc_status"`
	Bio             string   `db:"bio"`
	ExperienceYears int      `db:"experience_years"`
	City            string   `db:"city"`
	AddressLine     string   `db:"address_line"`
	WorkingDays     string   `db:"working_days"`
	StartTime       string   `db:"start_time"`
	EndTime         string   `db:"end_time"`
	Rating          float64  `db:"rating"`
	JobsCompleted   int      `db:"jobs_completed"`
	LastLatitude    *float64 `db:"last_latitude"`
	LastLongitude   *float64 `db:"last_longitude"`
}

func (r providerRow) toModel() models.Provider {
	return models.Provider{
		ID:              r.ID,
		UserID:          r.UserID,
		ServiceType:     r.ServiceType,
		BasePrice:       r.BasePrice,
		IsOnline:        r.IsOnline,
		KycStatus:       models.KYCStatus(r.KycStatus),
		Bio:             r.Bio,
		ExperienceYears: r.ExperienceYears,
		City:            r.City,
		AddressLine:     r.AddressLine,
		WorkingDays:     csvToList(r.WorkingDays),
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
	}
}

func csvToList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func listToCSV(list []string) string {
	return strings.Join(list, ",")
}

// ErrNotFound is returned when a lookup misses.
var ErrNotFound = errors.New("devserver: not found")

func wrapNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// ---- users & profiles ----

func (s *Store) CreateUser(ctx context.Context, email, fullName, hashedPassword, role string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, full_name, hashed_password, role) VALUES (?, ?, ?, ?)`,
		email, fullName, hashedPassword, role)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*userRow, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM users WHERE email = ?`, email)
	if err != nil {
		return nil, wrapNoRows(err)
	}
	return &row, nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (*userRow, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, wrapNoRows(err)
	}
	return &row, nil
}

func (s *Store) CreateCustomer(ctx context.Context, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO customers (user_id) VALUES (?)`, userID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) CustomerIDByUserID(ctx context.Context, userID int64) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, `SELECT id FROM customers WHERE user_id = ?`, userID)
	if err != nil {
		return 0, wrapNoRows(err)
	}
	return id, nil
}

func (s *Store) CreateProvider(ctx context.Context, userID int64, serviceType string, basePrice float64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO providers (user_id, service_type, base_price) VALUES (?, ?, ?)`,
		userID, serviceType, basePrice)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) ProviderByUserID(ctx context.Context, userID int64) (*providerRow, error) {
	var row providerRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM providers WHERE user_id = ?`, userID)
	if err != nil {
		return nil, wrapNoRows(err)
	}
	return &row, nil
}

func (s *Store) ProviderByID(ctx context.Context, id int64) (*providerRow, error) {
	var row providerRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM providers WHERE id = ?`, id)
	if err != nil {
		return nil, wrapNoRows(err)
	}
	return &row, nil
}

// UpdateProviderProfile applies the non-nil fields of a profile edit.
func (s *Store) UpdateProviderProfile(ctx context.Context, userID int64, fullName, phone, bio, serviceType, city, addressLine *string, basePrice *float64, experienceYears *int) error {
	if fullName != nil || phone != nil {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE users SET full_name = COALESCE(?, full_name), phone = COALESCE(?, phone) WHERE id = ?`,
			fullName, phone, userID); err != nil {
			return err
		}
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE providers SET
			bio = COALESCE(?, bio),
			service_type = COALESCE(?, service_type),
			base_price = COALESCE(?, base_price),
			experience_years = COALESCE(?, experience_years),
			city = COALESCE(?, city),
			address_line = COALESCE(?, address_line)
		WHERE user_id = ?`,
		bio, serviceType, basePrice, experienceYears, city, addressLine, userID)
	return err
}

func (s *Store) SetAvailability(ctx context.Context, providerID int64, in models.Availability) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE providers SET is_online = ?, working_days = ?, start_time = ?, end_time = ? WHERE id = ?`,
		in.IsOnline, listToCSV(in.WorkingDays), in.StartTime, in.EndTime, providerID)
	return err
}

func (s *Store) SetProviderLocation(ctx context.Context, providerID int64, lat, lng float64, setOnline *bool) error {
	if setOnline != nil {
		_, err := s.db.ExecContext(ctx,
			`UPDATE providers SET last_latitude = ?, last_longitude = ?, is_online = ? WHERE id = ?`,
			lat, lng, *setOnline, providerID)
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE providers SET last_latitude = ?, last_longitude = ? WHERE id = ?`,
		lat, lng, providerID)
	return err
}

// ---- requests ----

type requestRow struct {
	ID           int64    `db:"id"`
	CustomerID   int64    `db:"customer_id"`
	ProviderID   *int64   `db:"provider_id"`
	Title        string   `db:"title"`
	ServiceType  string   `db:"service_type"`
	Status       string   `db:"status"`
	Address      string   `db:"address"`
	Description  string   `db:"description"`
	Budget       *float64 `db:"budget"`
	CancelReason string   `db:"cancel_reason"`
	CustomerLat  *float64 `db:"customer_lat"`
	CustomerLng  *float64 `db:"customer_lng"`
}

func (r requestRow) toModel() models.Request {
	return models.Request{
		ID:           r.ID,
		Title:        r.Title,
		ServiceType:  r.ServiceType,
		Status:       models.RequestStatus(r.Status),
		Address:      r.Address,
		Description:  r.Description,
		Budget:       r.Budget,
		CancelReason: r.CancelReason,
		CustomerLat:  r.CustomerLat,
		CustomerLng:  r.CustomerLng,
		ProviderID:   r.ProviderID,
	}
}

func (s *Store) CreateRequest(ctx context.Context, customerID int64, in models.RequestCreate) (*requestRow, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO requests (customer_id, title, service_type, address, description, budget, customer_lat, customer_lng)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		customerID, in.Title, in.ServiceType, in.Address, in.Description, in.Budget, in.CustomerLat, in.CustomerLng)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.RequestByID(ctx, id)
}

func (s *Store) RequestByID(ctx context.Context, id int64) (*requestRow, error) {
	var row requestRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM requests WHERE id = ?`, id)
	if err != nil {
		return nil, wrapNoRows(err)
	}
	return &row, nil
}

func (s *Store) RequestForCustomer(ctx context.Context, id, customerID int64) (*requestRow, error) {
	var row requestRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM requests WHERE id = ? AND customer_id = ?`, id, customerID)
	if err != nil {
		return nil, wrapNoRows(err)
	}
	return &row, nil
}

func (s *Store) RequestForProvider(ctx context.Context, id, providerID int64) (*requestRow, error) {
	var row requestRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM requests WHERE id = ? AND provider_id = ?`, id, providerID)
	if err != nil {
		return nil, wrapNoRows(err)
	}
	return &row, nil
}

func (s *Store) RequestsByCustomer(ctx context.Context, customerID int64, limit, offset int) ([]requestRow, error) {
	var rows []requestRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM requests WHERE customer_id = ? ORDER BY id DESC LIMIT ? OFFSET ?`,
		customerID, limit, offset)
	return rows, err
}

func (s *Store) UpdateRequestStatus(ctx context.Context, id int64, status models.RequestStatus) error {
	_, err := s.db.ExecContext(ctx, `UPDATE requests SET status = ? WHERE id = ?`, status, id)
	return err
}

func (s *Store) AssignProvider(ctx context.Context, id, providerID int64, budget float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE requests SET provider_id = ?, budget = ? WHERE id = ?`, providerID, budget, id)
	return err
}

func (s *Store) ActiveRequestForProvider(ctx context.Context, providerID int64) (*requestRow, error) {
	query, args, err := sqlx.In(
		`SELECT * FROM requests WHERE provider_id = ? AND status IN (?) ORDER BY id DESC LIMIT 1`,
		providerID, activeStatuses)
	if err != nil {
		return nil, err
	}

	var row requestRow
	err = s.db.GetContext(ctx, &row, s.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Store) PendingRequestsForProvider(ctx context.Context, providerID int64, limit int) ([]requestRow, error) {
	var rows []requestRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM requests WHERE provider_id = ? AND status = 'pending' ORDER BY id DESC LIMIT ?`,
		providerID, limit)
	return rows, err
}

func (s *Store) RequestsByProvider(ctx context.Context, providerID int64, limit int) ([]requestRow, error) {
	var rows []requestRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM requests WHERE provider_id = ? ORDER BY id DESC LIMIT ?`, providerID, limit)
	return rows, err
}

// NearbyProviders lists online providers for a service type that have no
// active job. No distance math here: distance_km stays null until a real
// geo index exists.
func (s *Store) NearbyProviders(ctx context.Context, serviceType string, limit int) ([]models.NearbyProvider, error) {
	query := `
		SELECT p.id, u.full_name, p.city, p.base_price, p.rating, p.jobs_completed
		FROM providers p
		JOIN users u ON u.id = p.user_id
		WHERE p.is_online = 1
		  AND (? = '' OR p.service_type = ?)
		  AND NOT EXISTS (
			SELECT 1 FROM requests r
			WHERE r.provider_id = p.id
			  AND r.status IN ('assigned', 'en_route', 'arrived', 'payment')
		  )
		ORDER BY p.id
		LIMIT ?`

	rows, err := s.db.QueryxContext(ctx, query, serviceType, serviceType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.NearbyProvider{}
	for rows.Next() {
		var (
			item      models.NearbyProvider
			city      string
			basePrice float64
		)
		if err := rows.Scan(&item.ProviderID, &item.Name, &city, &basePrice, &item.Rating, &item.Jobs); err != nil {
			return nil, err
		}
		item.Area = city
		if item.Area == "" {
			item.Area = "Mumbai"
		}
		item.EstMin = basePrice
		item.EstMax = basePrice + 500
		items = append(items, item)
	}
	return items, rows.Err()
}

// CustomerStats counts the dashboard tiles for one customer.
func (s *Store) CustomerStats(ctx context.Context, customerID int64) (active, completed, total int, err error) {
	err = s.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM requests WHERE customer_id = ?`, customerID)
	if err != nil {
		return
	}
	err = s.db.GetContext(ctx, &completed,
		`SELECT COUNT(*) FROM requests WHERE customer_id = ? AND status = 'completed'`, customerID)
	if err != nil {
		return
	}
	err = s.db.GetContext(ctx, &active,
		`SELECT COUNT(*) FROM requests WHERE customer_id = ? AND status NOT IN ('completed', 'cancelled')`, customerID)
	return
}

// UpdateCustomerUser applies the non-nil fields of a customer profile edit.
func (s *Store) UpdateCustomerUser(ctx context.Context, userID int64, fullName, email, newHash *string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET
			full_name = COALESCE(?, full_name),
			email = COALESCE(?, email),
			hashed_password = COALESCE(?, hashed_password)
		WHERE id = ?`,
		fullName, email, newHash, userID)
	return err
}

func (s *Store) IncrementJobsCompleted(ctx context.Context, providerID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE providers SET jobs_completed = jobs_completed + 1 WHERE id = ?`, providerID)
	return err
}

// ---- kyc ----

type kycRow struct {
	ID               int64  `db:"id"`
	ProviderID       int64  `db:"provider_id"`
	IDNumber         string `db:"id_number"`
	AddressLine      string `db:"address_line"`
	IDProofPath      string `db:"id_proof_path"`
	AddressProofPath string `db:"address_proof_path"`
	ProfilePhotoPath string `db:"profile_photo_path"`
	RejectionReason  string `db:"rejection_reason"`
}

func (s *Store) UpsertKyc(ctx context.Context, providerID int64, idNumber, addressLine, idProof, addressProof, profilePhoto string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kyc_records (provider_id, id_number, address_line, id_proof_path, address_proof_path, profile_photo_path, rejection_reason)
		VALUES (?, ?, ?, ?, ?, ?, '')
		ON CONFLICT(provider_id) DO UPDATE SET
			id_number = excluded.id_number,
			address_line = excluded.address_line,
			id_proof_path = excluded.id_proof_path,
			address_proof_path = excluded.address_proof_path,
			profile_photo_path = excluded.profile_photo_path,
			rejection_reason = ''`,
		providerID, idNumber, addressLine, idProof, addressProof, profilePhoto)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE providers SET kyc_status = 'pending' WHERE id = ?`, providerID)
	return err
}

func (s *Store) KycByProvider(ctx context.Context, providerID int64) (*kycRow, error) {
	var row kycRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM kyc_records WHERE provider_id = ?`, providerID)
	if err != nil {
		return nil, wrapNoRows(err)
	}
	return &row, nil
}

// SetKycStatus records the review decision; approval zeroes the rejection
// reason, rejection also forces the provider offline.
func (s *Store) SetKycStatus(ctx context.Context, providerID int64, status models.KYCStatus, reason string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE providers SET kyc_status = ?, is_online = CASE WHEN ? = 'rejected' THEN 0 ELSE is_online END WHERE id = ?`,
		status, status, providerID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE kyc_records SET rejection_reason = ? WHERE provider_id = ?`, reason, providerID)
	return err
}

// ---- admin ----

func (s *Store) Stats(ctx context.Context) (*models.AdminStats, error) {
	var stats models.AdminStats
	queries := []struct {
		dst   *int
		query string
	}{
		{&stats.PendingKyc, `SELECT COUNT(*) FROM providers WHERE kyc_status = 'pending'`},
		{&stats.TotalProviders, `SELECT COUNT(*) FROM providers`},
		{&stats.OnlineProviders, `SELECT COUNT(*) FROM providers WHERE is_online = 1`},
		{&stats.TotalCustomers, `SELECT COUNT(*) FROM users WHERE role = 'customer'`},
		{&stats.TotalRequests, `SELECT COUNT(*) FROM requests`},
		{&stats.OpenReports, `SELECT COUNT(*) FROM reports WHERE status = 'open'`},
	}
	for _, q := range queries {
		if err := s.db.GetContext(ctx, q.dst, q.query); err != nil {
			return nil, err
		}
	}
	return &stats, nil
}

// ProviderListing lists providers (optionally by KYC status) with the
// joined user, matching the admin screens.
func (s *Store) ProviderListing(ctx context.Context, kycStatus, search string, limit, offset int) (int, []models.KycQueueItem, error) {
	where := `WHERE (? = '' OR p.kyc_status = ?)
	  AND (? = '' OR u.full_name LIKE '%' || ? || '%' OR u.email LIKE '%' || ? || '%')`

	var total int
	err := s.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM providers p JOIN users u ON u.id = p.user_id `+where,
		kycStatus, kycStatus, search, search, search)
	if err != nil {
		return 0, nil, err
	}

	rows, err := s.db.QueryxContext(ctx, `
		SELECT p.id, u.full_name, u.email, p.service_type, p.kyc_status, p.is_online
		FROM providers p JOIN users u ON u.id = p.user_id `+where+`
		ORDER BY p.id LIMIT ? OFFSET ?`,
		kycStatus, kycStatus, search, search, search, limit, offset)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	items := []models.KycQueueItem{}
	for rows.Next() {
		var item models.KycQueueItem
		if err := rows.Scan(&item.ProviderID, &item.Name, &item.Email, &item.ServiceType, &item.KycStatus, &item.IsOnline); err != nil {
			return 0, nil, err
		}
		items = append(items, item)
	}
	return total, items, rows.Err()
}

func (s *Store) CustomerListing(ctx context.Context, search string, limit, offset int) (int, []models.User, error) {
	where := `WHERE role = 'customer'
	  AND (? = '' OR full_name LIKE '%' || ? || '%' OR email LIKE '%' || ? || '%')`

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users `+where, search, search, search); err != nil {
		return 0, nil, err
	}

	var rows []userRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM users `+where+` ORDER BY id LIMIT ? OFFSET ?`,
		search, search, search, limit, offset)
	if err != nil {
		return 0, nil, err
	}

	items := make([]models.User, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.toModel())
	}
	return total, items, nil
}

func (s *Store) RequestListing(ctx context.Context, status string, limit, offset int) (int, []requestRow, error) {
	var total int
	if err := s.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM requests WHERE (? = '' OR status = ?)`, status, status); err != nil {
		return 0, nil, err
	}

	var rows []requestRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM requests WHERE (? = '' OR status = ?) ORDER BY id DESC LIMIT ? OFFSET ?`,
		status, status, limit, offset)
	return total, rows, err
}

func (s *Store) ReportListing(ctx context.Context, limit, offset int) (int, []models.Report, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM reports`); err != nil {
		return 0, nil, err
	}

	items := []models.Report{}
	err := s.db.SelectContext(ctx, &items,
		`SELECT * FROM reports ORDER BY id DESC LIMIT ? OFFSET ?`, limit, offset)
	return total, items, err
}

func (s *Store) ResolveReport(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE reports SET status = 'resolved' WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SettingsDocument(ctx context.Context) (string, error) {
	var doc string
	err := s.db.GetContext(ctx, &doc, `SELECT document FROM settings WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return doc, err
}

func (s *Store) SaveSettingsDocument(ctx context.Context, doc string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, document) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET document = excluded.document`, doc)
	return err
}
