package models

// PayeeNameMaxLength bounds Payee.Name.
const PayeeNameMaxLength = 30

// Payee is the counterparty of a transaction, private to its owner.
type Payee struct {
	Base
	Name    string `gorm:"size:30;not null;uniqueIndex:uq_payees_name_owner" json:"name"`
	OwnerID string `gorm:"type:varchar(36);not null;uniqueIndex:uq_payees_name_owner" json:"owner"`

	Transactions []Transaction `gorm:"foreignKey:PayeeID;constraint:OnDelete:CASCADE" json:"-"`
}
