// Package domain defines the persistence models for users, wallets, contacts,
// and message records. These types are mapped with GORM and form the core data
// layer of the bulk-messaging application.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Message delivery states. A message row is created as pending and moves to
// exactly one terminal state once the transport call returns.
const (
	MessageStatusPending = "pending"
	MessageStatusSent    = "sent"
	MessageStatusFailed  = "failed"
)

// Wallet transaction types.
const (
	TxTypeCredit = "credit"
	TxTypeDebit  = "debit"
)

// Wallet transaction states. Transitions are pending → success or
// pending → failed, exactly once; terminal states are immutable.
const (
	TxStatusPending = "pending"
	TxStatusSuccess = "success"
	TxStatusFailed  = "failed"
)

// User represents an account that owns contacts, messages, and at most one
// wallet. Identity fields are immutable after creation; only Role changes.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name / Email: identity; Email is unique.
//   - Role: "admin" or "user".
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type User struct {
	ID        string         `json:"id"    gorm:"type:char(36);primaryKey"`
	Name      string         `json:"name"  gorm:"type:varchar(255);not null"`
	Email     string         `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Role      string         `json:"role"  gorm:"type:varchar(16);not null;default:'user';check:role IN ('admin','user')"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"     gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Wallet holds a user's prepaid balance. Created lazily on the first funding
// request. Balance is never observed negative: debits are conditional updates
// that only proceed when the balance covers the amount.
type Wallet struct {
	ID        string          `json:"id"      gorm:"type:char(36);primaryKey"`
	UserID    string          `json:"user_id" gorm:"type:char(36);not null;uniqueIndex"`
	Balance   decimal.Decimal `json:"balance" gorm:"type:decimal(20,2);not null;default:0"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	// User is the wallet owner. The wallet (and its transactions) are
	// cascade-deleted with the user.
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Wallet.
func (Wallet) TableName() string { return "wallets" }

// WalletTransaction is an append-only record of a balance change. Credits from
// payment funding start as pending and are reconciled against the gateway;
// debits for completed batches are written directly as success.
//
// Reference is generated uniquely per funding attempt and serves as the
// idempotency key for payment reconciliation.
type WalletTransaction struct {
	ID          string          `json:"id"          gorm:"type:char(36);primaryKey"`
	WalletID    string          `json:"wallet_id"   gorm:"type:char(36);not null;index"`
	Amount      decimal.Decimal `json:"amount"      gorm:"type:decimal(20,2);not null"`
	Type        string          `json:"type"        gorm:"type:varchar(8);not null;check:type IN ('credit','debit')"`
	Status      string          `json:"status"      gorm:"type:varchar(8);not null;default:'pending';check:status IN ('pending','success','failed')"`
	Reference   *string         `json:"reference,omitempty" gorm:"type:varchar(64);uniqueIndex"`
	Description string          `json:"description" gorm:"type:varchar(255)"`
	Meta        MetaMap         `json:"meta,omitempty" gorm:"type:text"`
	CreatedAt   time.Time       `json:"created_at"  gorm:"index"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Wallet Wallet `json:"-" gorm:"foreignKey:WalletID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for WalletTransaction.
func (WalletTransaction) TableName() string { return "wallet_transactions" }

// ContactPhone is a phone-number contact owned by a user, with optional
// locale hints used for provider routing.
type ContactPhone struct {
	ID          string         `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID      string         `json:"user_id"      gorm:"type:char(36);not null;index:idx_user_phones"`
	Name        string         `json:"name"         gorm:"type:varchar(255)"`
	PhoneNumber string         `json:"phone_number" gorm:"type:varchar(32);not null"`
	CountryCode *string        `json:"country_code,omitempty" gorm:"type:varchar(8)"`
	Country     *string        `json:"country,omitempty"      gorm:"type:varchar(64)"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for ContactPhone.
func (ContactPhone) TableName() string { return "contact_phones" }

// ContactEmail is an email contact owned by a user.
type ContactEmail struct {
	ID        string         `json:"id"      gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id" gorm:"type:char(36);not null;index:idx_user_emails"`
	Name      string         `json:"name"    gorm:"type:varchar(255)"`
	Email     string         `json:"email"   gorm:"type:varchar(255);not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for ContactEmail.
func (ContactEmail) TableName() string { return "contact_emails" }

// SenderSettings holds a user's "from" identities: one default per channel
// plus per-region overrides for the SMS providers.
type SenderSettings struct {
	ID                 string    `json:"id"      gorm:"type:char(36);primaryKey"`
	UserID             string    `json:"user_id" gorm:"type:char(36);not null;uniqueIndex"`
	FromEmail          string    `json:"from_email"           gorm:"type:varchar(255)"`
	FromPhone          string    `json:"from_phone"           gorm:"type:varchar(32)"`
	TwilioUKFrom       string    `json:"twilio_uk_from"       gorm:"type:varchar(32)"`
	TwilioUSFrom       string    `json:"twilio_us_from"       gorm:"type:varchar(32)"`
	AfricasTalkingFrom string    `json:"africastalking_from"  gorm:"type:varchar(32)"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for SenderSettings.
func (SenderSettings) TableName() string { return "sender_settings" }

// SmsMessage records a single SMS send attempt and its billing detail.
//
// The row is inserted as pending before the transport call and always moves
// to sent or failed once the call returns. ContactPhoneID is a weak
// reference: deleting the contact nulls it, message history survives.
type SmsMessage struct {
	ID                string           `json:"id"      gorm:"type:char(36);primaryKey"`
	UserID            string           `json:"user_id" gorm:"type:char(36);not null;index:idx_user_sms"`
	ContactPhoneID    *string          `json:"contact_phone_id,omitempty" gorm:"type:char(36);index"`
	From              *string          `json:"from,omitempty" gorm:"type:varchar(32)"`
	To                string           `json:"to"       gorm:"type:varchar(32);not null"`
	Body              string           `json:"body"     gorm:"type:text;not null"`
	Provider          string           `json:"provider" gorm:"type:varchar(32);not null"`
	Units             int              `json:"units"    gorm:"not null;default:1"`
	PricePerUnit      decimal.Decimal  `json:"price_per_unit" gorm:"type:decimal(20,2);not null;default:0"`
	TotalPrice        decimal.Decimal  `json:"total_price"    gorm:"type:decimal(20,2);not null;default:0"`
	Status            string           `json:"status"   gorm:"type:varchar(8);not null;default:'pending';check:status IN ('pending','sent','failed')"`
	ProviderMessageID *string          `json:"provider_message_id,omitempty" gorm:"type:varchar(64)"`
	ErrorMessage      *string          `json:"error_message,omitempty" gorm:"type:text"`
	SentAt            *time.Time       `json:"sent_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at" gorm:"index:idx_user_sms,priority:2"`
	UpdatedAt         time.Time        `json:"updated_at"`

	Contact *ContactPhone `json:"-" gorm:"foreignKey:ContactPhoneID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TableName returns the database table name for SmsMessage.
func (SmsMessage) TableName() string { return "sms_messages" }

// EmailMessage records a single email send attempt. Emails carry no per-unit
// cost, so there is no billing detail here.
type EmailMessage struct {
	ID             string     `json:"id"      gorm:"type:char(36);primaryKey"`
	UserID         string     `json:"user_id" gorm:"type:char(36);not null;index:idx_user_email_msgs"`
	ContactEmailID *string    `json:"contact_email_id,omitempty" gorm:"type:char(36);index"`
	From           string     `json:"from"    gorm:"type:varchar(255)"`
	To             string     `json:"to"      gorm:"type:varchar(255);not null"`
	Subject        string     `json:"subject" gorm:"type:varchar(255);not null"`
	Body           string     `json:"body"    gorm:"type:text;not null"`
	Status         string     `json:"status"  gorm:"type:varchar(8);not null;default:'pending';check:status IN ('pending','sent','failed')"`
	ErrorMessage   *string    `json:"error_message,omitempty" gorm:"type:text"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at" gorm:"index:idx_user_email_msgs,priority:2"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Contact *ContactEmail `json:"-" gorm:"foreignKey:ContactEmailID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TableName returns the database table name for EmailMessage.
func (EmailMessage) TableName() string { return "email_messages" }

// AppSetting is the process-wide singleton holding current SMS pricing.
// The dispatch core only reads it; a missing or non-positive price blocks
// all SMS sends.
type AppSetting struct {
	ID                 uint             `json:"id"       gorm:"primaryKey"`
	SmsPricePerMessage *decimal.Decimal `json:"sms_price_per_message,omitempty" gorm:"type:decimal(20,2)"`
	Currency           string           `json:"currency" gorm:"type:varchar(8);not null;default:'NGN'"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// TableName returns the database table name for AppSetting.
func (AppSetting) TableName() string { return "app_settings" }
