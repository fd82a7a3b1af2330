package item

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes lost reports from found items
type Kind string

const (
	KindLost  Kind = "lost"
	KindFound Kind = "found"
)

// Category is one of the fixed item tags
type Category string

const (
	CategoryElectronics Category = "ELECTRONICS"
	CategoryWallet      Category = "WALLET"
	CategoryIDCard      Category = "ID_CARD"
	CategoryBag         Category = "BAG"
	CategoryClothing    Category = "CLOTHING"
	CategoryBook        Category = "BOOK"
	CategoryKey         Category = "KEY"
	CategoryAccessory   Category = "ACCESSORY"
	CategoryUmbrella    Category = "UMBRELLA"
	CategoryOther       Category = "OTHER"
)

// RequiresSecurityCheck reports whether handing over an item of this category
// needs a security verification step
func (c Category) RequiresSecurityCheck() bool {
	switch c {
	case CategoryElectronics, CategoryWallet, CategoryIDCard:
		return true
	}
	return false
}

// LostStatus is the lifecycle of a lost report
type LostStatus string

const (
	LostOpen    LostStatus = "OPEN"
	LostMatched LostStatus = "MATCHED"
	LostClosed  LostStatus = "CLOSED"
)

// FoundStatus is the lifecycle of a found item
type FoundStatus string

const (
	FoundRegistered FoundStatus = "REGISTERED"
	FoundStored     FoundStatus = "STORED"
	FoundInHandover FoundStatus = "IN_HANDOVER"
	FoundHandedOver FoundStatus = "HANDED_OVER"
	FoundDiscarded  FoundStatus = "DISCARDED"
)

// StorageType tells who physically keeps a found item
type StorageType string

const (
	StorageSelf     StorageType = "SELF"
	StorageOffice   StorageType = "OFFICE"
	StorageSecurity StorageType = "SECURITY"
	StorageLocker   StorageType = "LOCKER"
)

// IsCustodial reports whether the item sits in campus custody
func (s StorageType) IsCustodial() bool {
	return s == StorageOffice || s == StorageSecurity || s == StorageLocker
}

// RestingStatus is the status a found item returns to when no handover holds it
func (s StorageType) RestingStatus() FoundStatus {
	if s.IsCustodial() {
		return FoundStored
	}
	return FoundRegistered
}

// LostItem is a report filed by someone who lost something
type LostItem struct {
	ID          uuid.UUID      `db:"id"`
	UserID      uuid.UUID      `db:"user_id"`
	Category    Category       `db:"category"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	LostAt      time.Time      `db:"lost_at"`
	LostPlace   string         `db:"lost_place"`
	Reward      sql.NullInt64  `db:"reward"`
	Status      LostStatus     `db:"status"`
	IsBlinded   bool           `db:"is_blinded"`
	PhotoURL    sql.NullString `db:"photo_url"`
	ThumbURL    sql.NullString `db:"thumb_url"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// IsEditable reports whether the owner may still change the report
func (l *LostItem) IsEditable() bool {
	return l.Status == LostOpen
}

// FoundItem is an object somebody picked up on campus
type FoundItem struct {
	ID              uuid.UUID      `db:"id"`
	UserID          uuid.UUID      `db:"user_id"`
	Category        Category       `db:"category"`
	Title           string         `db:"title"`
	Description     string         `db:"description"`
	FoundAt         time.Time      `db:"found_at"`
	FoundPlace      string         `db:"found_place"`
	StorageType     StorageType    `db:"storage_type"`
	StorageLocation string         `db:"storage_location"`
	Status          FoundStatus    `db:"status"`
	IsBlinded       bool           `db:"is_blinded"`
	PhotoURL        sql.NullString `db:"photo_url"`
	ThumbURL        sql.NullString `db:"thumb_url"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

// IsAvailable reports whether the item can be claimed by a new handover
func (f *FoundItem) IsAvailable() bool {
	return !f.IsBlinded && (f.Status == FoundRegistered || f.Status == FoundStored)
}

// IsTerminal reports whether the item left the registry for good
func (f *FoundItem) IsTerminal() bool {
	return f.Status == FoundHandedOver || f.Status == FoundDiscarded
}

// CanBeSetTo checks manual status changes made by staff.
// IN_HANDOVER and HANDED_OVER are owned by the handover workflow.
func (f *FoundItem) CanBeSetTo(target FoundStatus) bool {
	switch f.Status {
	case FoundRegistered:
		return target == FoundStored || target == FoundDiscarded
	case FoundStored:
		return target == FoundRegistered || target == FoundDiscarded
	default:
		return false
	}
}

// visible reports whether viewer may see a possibly blinded item
func visible(blinded bool, ownerID, viewerID uuid.UUID, viewerIsAdmin bool) bool {
	return !blinded || ownerID == viewerID || viewerIsAdmin
}

// FoundFilter narrows the public found item list
type FoundFilter struct {
	Query          string
	Category       Category
	Status         FoundStatus
	IncludeBlinded bool
	IDs            []uuid.UUID
}

// FoundSort is a whitelisted ordering of the found list
type FoundSort string

const (
	SortCreatedDesc FoundSort = "createdAt,desc"
	SortCreatedAsc  FoundSort = "createdAt,asc"
	SortFoundDesc   FoundSort = "foundAt,desc"
	SortFoundAsc    FoundSort = "foundAt,asc"
)

// ParseFoundSort falls back to newest first for unknown values
func ParseFoundSort(s string) FoundSort {
	switch FoundSort(s) {
	case SortCreatedAsc, SortFoundDesc, SortFoundAsc:
		return FoundSort(s)
	}
	return SortCreatedDesc
}
