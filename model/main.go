package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

type Role string

const (
	RoleUser  Role = "usuario"
	RoleAdmin Role = "admin"
)

// Textual column defaults, as written by the schema migrations.
const (
	TripPlanned         = "planejada"
	TripClientConfirmed = "confirmado"
	PaymentPending      = "pendente"
	SeatAvailable       = "disponivel"
	DealStageLead       = "lead"
	DealOpen            = "aberto"
	DealProbability     = 50
	TripProductQty      = 1
)

// EntityType tags the row that an Activity or Document points at. The
// entity_type/entity_id pair is a polymorphic reference; the database holds
// no foreign key for it.
type EntityType string

const (
	EntityClient     EntityType = "client"
	EntityTrip       EntityType = "trip"
	EntityDeal       EntityType = "deal"
	EntityCompany    EntityType = "company"
	EntityStore      EntityType = "store"
	EntityAgency     EntityType = "agency"
	EntityConsultant EntityType = "consultant"
	EntitySupplier   EntityType = "supplier"
	EntityProduct    EntityType = "product"
	EntityUser       EntityType = "user"
)

var entityTables = map[EntityType]string{
	EntityClient:     "clients",
	EntityTrip:       "trips",
	EntityDeal:       "deals",
	EntityCompany:    "companies",
	EntityStore:      "stores",
	EntityAgency:     "tourism_agencies",
	EntityConsultant: "consultants",
	EntitySupplier:   "suppliers",
	EntityProduct:    "products",
	EntityUser:       "users",
}

// IsValid returns true if the EntityType is known
func (e EntityType) IsValid() bool {
	_, ok := entityTables[e]
	return ok
}

// Table returns the name of the table the EntityType refers to, or "" when unknown.
func (e EntityType) Table() string {
	return entityTables[e]
}

func (e *EntityType) Scan(value any) error {
	switch v := value.(type) {
	case string:
		*e = EntityType(v)
	case []byte:
		*e = EntityType(v)
	default:
		return fmt.Errorf("cannot scan %T into EntityType", value)
	}
	return nil
}

func (e EntityType) Value() (driver.Value, error) {
	if !e.IsValid() {
		return nil, fmt.Errorf("invalid EntityType %q", e)
	}
	return string(e), nil
}

// EntityRef is a resolved polymorphic reference.
type EntityRef struct {
	Type EntityType
	ID   int
}

func (r EntityRef) String() string {
	return fmt.Sprintf("%s/%d", r.Type, r.ID)
}

// Timestamps mirrors the created_at/updated_at pair every table carries.
type Timestamps struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	ID       uint `gorm:"primaryKey"`
	Name     string
	Email    string `gorm:"uniqueIndex"`
	Password string
	Role     Role `gorm:"default:usuario"`
	Timestamps
}

type Client struct {
	ID               uint `gorm:"primaryKey"`
	ClientNumber     *string
	Name             string
	Email            *string
	Phone            *string
	Dob              *time.Time
	Cpf              *string
	Address          *string
	City             *string
	State            *string
	Zipcode          *string
	Occupation       *string
	Income           *float64
	MaritalStatus    *string
	SpouseName       *string
	SpouseDob        *time.Time
	SpouseCpf        *string
	SpouseOccupation *string
	SpouseIncome     *float64
	HasChildren      bool `gorm:"default:false"`
	Preferences      *string
	Observations     *string
	UserID           *uint
	User             *User
	Timestamps
}

type ChildName struct {
	ID       uint `gorm:"primaryKey"`
	ClientID *uint
	Client   *Client
	Name     string
	Dob      *time.Time
	Gender   *string
	Timestamps
}

type ClientWish struct {
	ID       uint `gorm:"primaryKey"`
	ClientID *uint
	Client   *Client
	Wish     string
	Priority *string
	Timestamps
}

type Company struct {
	ID           uint `gorm:"primaryKey"`
	Name         string
	Cnpj         *string
	Email        *string
	Phone        *string
	Address      *string
	City         *string
	State        *string
	Zipcode      *string
	Observations *string
	Timestamps
}

type Store struct {
	ID           uint `gorm:"primaryKey"`
	CompanyID    *uint
	Company      *Company
	Name         string
	Email        *string
	Phone        *string
	Address      *string
	City         *string
	State        *string
	Zipcode      *string
	Observations *string
	Timestamps
}

type ClientStore struct {
	ID       uint `gorm:"primaryKey"`
	ClientID *uint
	Client   *Client
	StoreID  *uint
	Store    *Store
	Timestamps
}

type TourismAgency struct {
	ID           uint `gorm:"primaryKey"`
	CompanyID    *uint
	Company      *Company
	Name         string
	Email        *string
	Phone        *string
	Address      *string
	City         *string
	State        *string
	Zipcode      *string
	Observations *string
	Timestamps
}

type Consultant struct {
	ID             uint `gorm:"primaryKey"`
	AgencyID       *uint
	Agency         *TourismAgency
	Name           string
	Email          *string
	Phone          *string
	CommissionRate *float64
	Observations   *string
	Timestamps
}

type Supplier struct {
	ID           uint `gorm:"primaryKey"`
	Name         string
	Type         *string
	Cnpj         *string
	ContactName  *string
	Email        *string
	Phone        *string
	Address      *string
	City         *string
	State        *string
	Zipcode      *string
	Observations *string
	Timestamps
}

type Product struct {
	ID          uint `gorm:"primaryKey"`
	SupplierID  *uint
	Supplier    *Supplier
	Name        string
	Description *string
	Category    *string
	Price       *float64
	Timestamps
}

type Trip struct {
	ID           uint `gorm:"primaryKey"`
	Name         string
	Destination  string
	StartDate    time.Time
	EndDate      time.Time
	Price        *float64
	Capacity     *int
	Description  *string
	Status       string `gorm:"default:planejada"`
	AgencyID     *uint
	Agency       *TourismAgency
	ConsultantID *uint
	Consultant   *Consultant
	Image        *string
	Timestamps
}

type TripClient struct {
	ID            uint `gorm:"primaryKey"`
	TripID        *uint
	Trip          *Trip
	ClientID      *uint
	Client        *Client
	Status        string `gorm:"default:confirmado"`
	PaymentStatus string `gorm:"default:pendente"`
	PaymentAmount *float64
	PaymentDate   *time.Time
	Observations  *string
	Timestamps
}

type TripSeat struct {
	ID         uint `gorm:"primaryKey"`
	TripID     *uint
	Trip       *Trip
	SeatNumber string
	Status     string `gorm:"default:disponivel"`
	ClientID   *uint
	Client     *Client
	Timestamps
}

// TripProduct is a product sold on a trip. A nil Quantity is stored as
// TripProductQty.
type TripProduct struct {
	ID        uint `gorm:"primaryKey"`
	TripID    *uint
	Trip      *Trip
	ProductID *uint
	Product   *Product
	Price     *float64
	Quantity  *int `gorm:"default:1"`
	Timestamps
}

type TripSupplier struct {
	ID                 uint `gorm:"primaryKey"`
	TripID             *uint
	Trip               *Trip
	SupplierID         *uint
	Supplier           *Supplier
	ServiceDescription *string
	Cost               *float64
	Timestamps
}

// A Deal is a sales opportunity moving through the pipeline, starting as an
// open lead. A nil Probability lets the database apply DealProbability.
type Deal struct {
	ID                uint `gorm:"primaryKey"`
	ClientID          *uint
	Client            *Client
	TripID            *uint
	Trip              *Trip
	Title             string
	Amount            *float64
	Stage             string `gorm:"default:lead"`
	Status            string `gorm:"default:aberto"`
	Probability       *int   `gorm:"default:50"`
	ExpectedCloseDate *time.Time
	UserID            *uint
	User              *User
	AgencyID          *uint
	Agency            *TourismAgency
	ConsultantID      *uint
	Consultant        *Consultant
	Timestamps
}

type Activity struct {
	ID            uint `gorm:"primaryKey"`
	Type          string
	Description   string
	EntityType    EntityType `gorm:"type:text"`
	EntityID      int
	UserID        *uint
	User          *User
	ScheduledDate *time.Time
	Completed     bool `gorm:"default:false"`
	Timestamps
}

// Ref returns the row this activity is attached to.
func (a Activity) Ref() EntityRef {
	return EntityRef{Type: a.EntityType, ID: a.EntityID}
}

type Document struct {
	ID         uint `gorm:"primaryKey"`
	Name       string
	FilePath   string
	EntityType EntityType `gorm:"type:text"`
	EntityID   int
	UserID     *uint
	User       *User
	Timestamps
}

// Ref returns the row this document is attached to.
func (d Document) Ref() EntityRef {
	return EntityRef{Type: d.EntityType, ID: d.EntityID}
}

// Tables lists one value of every model in the order the schema creates them,
// so that referenced tables precede the tables pointing at them.
func Tables() []any {
	return []any{
		&User{},
		&Client{},
		&ChildName{},
		&ClientWish{},
		&Company{},
		&Store{},
		&ClientStore{},
		&TourismAgency{},
		&Consultant{},
		&Supplier{},
		&Product{},
		&Trip{},
		&TripClient{},
		&TripSeat{},
		&TripProduct{},
		&TripSupplier{},
		&Deal{},
		&Activity{},
		&Document{},
	}
}
