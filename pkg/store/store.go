// Package store implements the relational persistence layer: idempotent
// CVE upserts, vendor/product get-or-create, CVE<->product and CVE<->KB
// edge reconciliation, and filtered/paginated reads. It is built on
// gorm+sqlite, generalized from a single CVE table to the full relational
// model the aggregator needs.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gorm.io/driver/sqlite"

	"github.com/cyw0ng95/vulnintel/pkg/applog"
	"github.com/cyw0ng95/vulnintel/pkg/cpe"
	"github.com/cyw0ng95/vulnintel/pkg/cvss/severity"
	"github.com/cyw0ng95/vulnintel/pkg/model"
)

// MaxPageSize caps every paginated query, per §4.5.
const MaxPageSize = 10

// Store wraps a *gorm.DB with a bounded connection pool, matching the
// "bounded connection pool (default depth of, e.g., 16)" resource policy.
type Store struct {
	db *gorm.DB
}

// Open connects to the sqlite database at dsn, migrates the schema, and
// caps the underlying connection pool.
func Open(dsn string, poolSize int) (*Store, error) {
	log := applog.Named("store")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("store: underlying sql.DB: %w", err)
	}
	if poolSize <= 0 {
		poolSize = 16
	}
	sqlDB.SetMaxOpenConns(poolSize)
	sqlDB.SetMaxIdleConns(poolSize)

	if err := db.AutoMigrate(
		&cveRow{}, &model.Vendor{}, &model.Product{}, &model.CVEProduct{},
		&model.KB{}, &model.CVEKB{}, &model.CWE{}, &cweViewRow{},
	); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	log.Info().Str("dsn", dsn).Int("pool_size", poolSize).Msg("store opened")
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CVECreate is an idempotent insert: on a unique CVE ID conflict it is a
// no-op, per §4.5.
func (s *Store) CVECreate(ctx context.Context, c model.CVE) error {
	row, err := toRow(c)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cve_id"}},
		DoNothing: true,
	}).Create(&row).Error
}

// CVECreateOrUpdate upserts a record: on conflict it overwrites everything
// except the translated flag, which is explicitly reset to false, per §4.5
// ("create_or_update... reset translated to false").
func (s *Store) CVECreateOrUpdate(ctx context.Context, c model.CVE) error {
	c.Translated = false
	row, err := toRow(c)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing cveRow
		err := tx.Where("cve_id = ?", c.CVEID).First(&existing).Error
		switch {
		case err == nil:
			row.Model = existing.Model
			row.ID16 = existing.ID16
			return tx.Save(&row).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&row).Error
		default:
			return err
		}
	})
}

// CVEUpdateTranslated merges one localization into the description list
// (upsert keyed on lang) and sets translated = true.
func (s *Store) CVEUpdateTranslated(ctx context.Context, cveID, lang, value string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row cveRow
		if err := tx.Where("cve_id = ?", cveID).First(&row).Error; err != nil {
			return err
		}
		c, err := fromRow(row)
		if err != nil {
			return err
		}

		merged := false
		for i, d := range c.Descriptions {
			if d.Lang == lang {
				c.Descriptions[i].Value = value
				merged = true
				break
			}
		}
		if !merged {
			c.Descriptions = append(c.Descriptions, model.Description{Lang: lang, Value: value})
		}
		c.Translated = true

		updated, err := toRow(c)
		if err != nil {
			return err
		}
		updated.Model = row.Model
		updated.ID16 = row.ID16
		return tx.Save(&updated).Error
	})
}

// CVEFilter selects records for CVEQuery.
type CVEFilter struct {
	CVEID      string
	Year       int
	Translated *bool
	Severity   severity.Band
	Vendor     string
	Product    string
	Descending bool
	Page       int // 1-based
	PageSize   int
}

// CVEQuery returns a paginated, filtered list of CVEs plus the total match
// count. Page size is capped at MaxPageSize per §4.5; a (vendor, product)
// filter is resolved through the edge tables, not by re-running the
// configuration-tree evaluator.
func (s *Store) CVEQuery(ctx context.Context, f CVEFilter) ([]model.CVE, int64, error) {
	pageSize := f.PageSize
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	page := f.Page
	if page < 1 {
		page = 1
	}

	q := s.db.WithContext(ctx).Model(&cveRow{})
	if f.CVEID != "" {
		q = q.Where("cve_id = ?", f.CVEID)
	}
	if f.Year != 0 {
		q = q.Where("year = ?", f.Year)
	}
	if f.Translated != nil {
		q = q.Where("translated = ?", *f.Translated)
	}
	if f.Severity != "" {
		q = q.Where("severity = ?", string(f.Severity))
	}
	if f.Vendor != "" || f.Product != "" {
		sub := s.db.Table("cve_products").
			Select("cve_products.cve_id").
			Joins("JOIN products ON products.id = cve_products.product_id").
			Joins("JOIN vendors ON vendors.id = products.vendor_id")
		if f.Vendor != "" {
			sub = sub.Where("vendors.name = ?", f.Vendor)
		}
		if f.Product != "" {
			sub = sub.Where("products.name = ?", f.Product)
		}
		q = q.Where("uuid IN (?)", sub)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "cve_id asc"
	if f.Descending {
		order = "cve_id desc"
	}

	var rows []cveRow
	if err := q.Order(order).Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]model.CVE, 0, len(rows))
	for _, r := range rows {
		c, err := fromRow(r)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, nil
}

// VendorQueryOrCreate is an idempotent get-or-insert keyed on name.
func (s *Store) VendorQueryOrCreate(ctx context.Context, name string) (model.Vendor, error) {
	var v model.Vendor
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&v).Error
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Vendor{}, err
	}
	v = model.Vendor{ID: model.NewUUID(), Name: name}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}}, DoNothing: true,
	}).Create(&v).Error; err != nil {
		return model.Vendor{}, err
	}
	return s.VendorQueryOrCreate(ctx, name)
}

// VendorFindByName is a read-only lookup, unlike VendorQueryOrCreate which
// inserts on a miss. Used by the query surface, which must never mutate
// state on a GET.
func (s *Store) VendorFindByName(ctx context.Context, name string) (model.Vendor, bool, error) {
	var v model.Vendor
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&v).Error
	switch {
	case err == nil:
		return v, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return model.Vendor{}, false, nil
	default:
		return model.Vendor{}, false, err
	}
}

// ProductFilter selects records for ProductQuery.
type ProductFilter struct {
	Vendor   string
	Product  string
	Page     int // 1-based
	PageSize int
}

// ProductQuery returns a paginated, filtered list of products plus the total
// match count. Each product carries its VendorID; the vendor's name is not
// included.
func (s *Store) ProductQuery(ctx context.Context, f ProductFilter) ([]model.Product, int64, error) {
	pageSize := f.PageSize
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	page := f.Page
	if page < 1 {
		page = 1
	}

	q := s.db.WithContext(ctx).Model(&model.Product{})
	if f.Vendor != "" {
		q = q.Joins("JOIN vendors ON vendors.id = products.vendor_id").Where("vendors.name = ?", f.Vendor)
	}
	if f.Product != "" {
		q = q.Where("products.name = ?", f.Product)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []model.Product
	if err := q.Order("products.name asc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ProductQueryOrCreate is an idempotent get-or-insert keyed on (vendor, name, part).
func (s *Store) ProductQueryOrCreate(ctx context.Context, vendorID model.UUID, name string, part cpe.Part) (model.Product, error) {
	var p model.Product
	err := s.db.WithContext(ctx).Where("vendor_id = ? AND name = ? AND part = ?", vendorID, name, part).First(&p).Error
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, err
	}
	p = model.Product{ID: model.NewUUID(), VendorID: vendorID, Name: name, Part: part}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// EdgeCVEProductReplace computes the existing product set for a CVE and
// reconciles it to newSet: deletes edges no longer present, inserts new
// ones, per §4.5.
func (s *Store) EdgeCVEProductReplace(ctx context.Context, cveID model.UUID, newSet []model.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []model.CVEProduct
		if err := tx.Where("cve_id = ?", cveID).Find(&existing).Error; err != nil {
			return err
		}
		old := map[model.UUID]bool{}
		for _, e := range existing {
			old[e.ProductID] = true
		}
		want := map[model.UUID]bool{}
		for _, p := range newSet {
			want[p] = true
		}

		for pid := range old {
			if !want[pid] {
				if err := tx.Where("cve_id = ? AND product_id = ?", cveID, pid).Delete(&model.CVEProduct{}).Error; err != nil {
					return err
				}
			}
		}
		for pid := range want {
			if !old[pid] {
				if err := tx.Create(&model.CVEProduct{CVEID: cveID, ProductID: pid}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// EdgeCVEKBReplace is the CVE<->KB analogue of EdgeCVEProductReplace.
func (s *Store) EdgeCVEKBReplace(ctx context.Context, cveID model.UUID, newSet []model.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []model.CVEKB
		if err := tx.Where("cve_id = ?", cveID).Find(&existing).Error; err != nil {
			return err
		}
		old := map[model.UUID]bool{}
		for _, e := range existing {
			old[e.KBID] = true
		}
		want := map[model.UUID]bool{}
		for _, k := range newSet {
			want[k] = true
		}
		for kid := range old {
			if !want[kid] {
				if err := tx.Where("cve_id = ? AND kb_id = ?", cveID, kid).Delete(&model.CVEKB{}).Error; err != nil {
					return err
				}
			}
		}
		for kid := range want {
			if !old[kid] {
				if err := tx.Create(&model.CVEKB{CVEID: cveID, KBID: kid}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// EdgeCVEKBInsert idempotently links a single KB entry to a CVE, used by
// the ingestion pipeline's "KB already exists for this CVE ID" step, which
// only ever adds edges rather than reconciling a full set.
func (s *Store) EdgeCVEKBInsert(ctx context.Context, cveID, kbID model.UUID) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.CVEKB{CVEID: cveID, KBID: kbID}).Error
}

// KBCreateOrUpdate upserts a KB entry keyed on (name, source).
func (s *Store) KBCreateOrUpdate(ctx context.Context, kb model.KB) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.KB
		err := tx.Where("name = ? AND source = ?", kb.Name, kb.Source).First(&existing).Error
		switch {
		case err == nil:
			kb.ID = existing.ID
			return tx.Save(&kb).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			if kb.ID.IsZero() {
				kb.ID = model.NewUUID()
			}
			return tx.Create(&kb).Error
		default:
			return err
		}
	})
}

// KBDelete removes a KB entry keyed on (name, source).
func (s *Store) KBDelete(ctx context.Context, name string, source model.KBSource) error {
	return s.db.WithContext(ctx).Where("name = ? AND source = ?", name, source).Delete(&model.KB{}).Error
}

// KBFindByName looks up every KB entry whose name matches a CVE ID, used by
// the ingestion pipeline's KB<->CVE edge-attach step.
func (s *Store) KBFindByName(ctx context.Context, name string) ([]model.KB, error) {
	var out []model.KB
	if err := s.db.WithContext(ctx).Where("name = ?", name).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// KBFilter selects records for KBQuery.
type KBFilter struct {
	Name     string
	Source   model.KBSource
	Page     int // 1-based
	PageSize int
}

// KBQuery returns a paginated, filtered list of KB entries plus the total
// match count, the read-only counterpart to KBFindByName's exact-name lookup.
func (s *Store) KBQuery(ctx context.Context, f KBFilter) ([]model.KB, int64, error) {
	pageSize := f.PageSize
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	page := f.Page
	if page < 1 {
		page = 1
	}

	q := s.db.WithContext(ctx).Model(&model.KB{})
	if f.Name != "" {
		q = q.Where("name = ?", f.Name)
	}
	if f.Source != "" {
		q = q.Where("source = ?", f.Source)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []model.KB
	if err := q.Order("name asc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// CVENotTranslated lists CVEs with translated = false, at most limit of them
// (a limit outside 1..MaxPageSize becomes MaxPageSize).
func (s *Store) CVENotTranslated(ctx context.Context, limit int) ([]model.CVE, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	var rows []cveRow
	if err := s.db.WithContext(ctx).Where("translated = ?", false).Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.CVE, 0, len(rows))
	for _, r := range rows {
		c, err := fromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// CWEViewCreateOrUpdate upserts a CWE view by ID.
func (s *Store) CWEViewCreateOrUpdate(ctx context.Context, v model.CWEView) error {
	row, err := toCWEViewRow(v)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

// CWEViewByID loads a single CWE view.
func (s *Store) CWEViewByID(ctx context.Context, id string) (model.CWEView, error) {
	var row cweViewRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return model.CWEView{}, err
	}
	return fromCWEViewRow(row)
}

// CWECreateOrUpdate upserts a CWE weakness catalog entry by ID.
func (s *Store) CWECreateOrUpdate(ctx context.Context, c model.CWE) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&c).Error
}
