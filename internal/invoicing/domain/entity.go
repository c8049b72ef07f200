package domain

import (
	"github.com/smallbiznis/invoicer/internal/store"
)

// Property names as stored, case-sensitive. These are the names filter
// expressions match against.
const (
	PropName            = "Name"
	PropEmail           = "Email"
	PropPhone           = "Phone"
	PropAddress         = "Address"
	PropCity            = "City"
	PropPostalCode      = "PostalCode"
	PropCountry         = "Country"
	PropInvoiceNumber   = "InvoiceNumber"
	PropCustomerName    = "CustomerName"
	PropCustomerEmail   = "CustomerEmail"
	PropCustomerAddress = "CustomerAddress"
	PropInvoiceDate     = "InvoiceDate"
	PropDueDate         = "DueDate"
	PropTotalAmount     = "TotalAmount"
	PropStatus          = "Status"
	PropDescription     = "Description"
	PropQuantity        = "Quantity"
	PropUnitPrice       = "UnitPrice"
	PropTotalPrice      = "TotalPrice"
	PropCreatedAt       = "CreatedAt"
	PropUpdatedAt       = "UpdatedAt"
)

var customerProps = map[string]struct{}{
	PropName: {}, PropEmail: {}, PropPhone: {}, PropAddress: {}, PropCity: {},
	PropPostalCode: {}, PropCountry: {}, PropCreatedAt: {}, PropUpdatedAt: {},
}

var invoiceProps = map[string]struct{}{
	PropInvoiceNumber: {}, PropCustomerName: {}, PropCustomerEmail: {},
	PropCustomerAddress: {}, PropInvoiceDate: {}, PropDueDate: {},
	PropTotalAmount: {}, PropStatus: {}, PropDescription: {},
	PropCreatedAt: {}, PropUpdatedAt: {},
}

var invoiceItemProps = map[string]struct{}{
	PropDescription: {}, PropQuantity: {}, PropUnitPrice: {},
	PropTotalPrice: {}, PropCreatedAt: {},
}

func extraProps(e store.Entity, known map[string]struct{}) map[string]store.Value {
	var extra map[string]store.Value
	for name, value := range e.Properties {
		if _, ok := known[name]; ok {
			continue
		}
		if extra == nil {
			extra = map[string]store.Value{}
		}
		extra[name] = value
	}
	return extra
}

func (c Customer) ToEntity() store.Entity {
	e := store.NewEntity(CustomerPartition, c.ID)
	e.Set(PropName, store.String(c.Name))
	e.Set(PropEmail, store.String(c.Email))
	e.Set(PropPhone, store.String(c.Phone))
	e.Set(PropAddress, store.String(c.Address))
	e.Set(PropCity, store.String(c.City))
	e.Set(PropPostalCode, store.String(c.PostalCode))
	e.Set(PropCountry, store.String(c.Country))
	e.Set(PropCreatedAt, store.Time(c.CreatedAt))
	e.Set(PropUpdatedAt, store.Time(c.UpdatedAt))
	for name, value := range c.Extra {
		e.Set(name, value)
	}
	return e
}

func CustomerFromEntity(e store.Entity) Customer {
	return Customer{
		ID:         e.RowKey,
		Name:       e.GetString(PropName),
		Email:      e.GetString(PropEmail),
		Phone:      e.GetString(PropPhone),
		Address:    e.GetString(PropAddress),
		City:       e.GetString(PropCity),
		PostalCode: e.GetString(PropPostalCode),
		Country:    e.GetString(PropCountry),
		CreatedAt:  e.GetTime(PropCreatedAt),
		UpdatedAt:  e.GetTime(PropUpdatedAt),
		Extra:      extraProps(e, customerProps),
	}
}

func (i Invoice) ToEntity() store.Entity {
	e := store.NewEntity(i.CustomerKey, i.InvoiceNumber)
	e.Set(PropInvoiceNumber, store.String(i.InvoiceNumber))
	e.Set(PropCustomerName, store.String(i.CustomerName))
	e.Set(PropCustomerEmail, store.String(i.CustomerEmail))
	e.Set(PropCustomerAddress, store.String(i.CustomerAddress))
	e.Set(PropInvoiceDate, store.Time(i.InvoiceDate))
	e.Set(PropDueDate, store.Time(i.DueDate))
	e.Set(PropTotalAmount, store.Number(i.TotalAmount))
	e.Set(PropStatus, store.String(string(i.Status)))
	e.Set(PropDescription, store.String(i.Description))
	e.Set(PropCreatedAt, store.Time(i.CreatedAt))
	e.Set(PropUpdatedAt, store.Time(i.UpdatedAt))
	for name, value := range i.Extra {
		e.Set(name, value)
	}
	return e
}

func InvoiceFromEntity(e store.Entity) Invoice {
	return Invoice{
		CustomerKey:     e.PartitionKey,
		InvoiceNumber:   e.RowKey,
		CustomerName:    e.GetString(PropCustomerName),
		CustomerEmail:   e.GetString(PropCustomerEmail),
		CustomerAddress: e.GetString(PropCustomerAddress),
		InvoiceDate:     e.GetTime(PropInvoiceDate),
		DueDate:         e.GetTime(PropDueDate),
		TotalAmount:     e.GetNumber(PropTotalAmount),
		Status:          InvoiceStatus(e.GetString(PropStatus)),
		Description:     e.GetString(PropDescription),
		CreatedAt:       e.GetTime(PropCreatedAt),
		UpdatedAt:       e.GetTime(PropUpdatedAt),
		Extra:           extraProps(e, invoiceProps),
	}
}

func (i InvoiceItem) ToEntity() store.Entity {
	e := store.NewEntity(i.InvoiceNumber, i.ID)
	e.Set(PropDescription, store.String(i.Description))
	e.Set(PropQuantity, store.Int(i.Quantity))
	e.Set(PropUnitPrice, store.Number(i.UnitPrice))
	e.Set(PropTotalPrice, store.Number(i.TotalPrice))
	e.Set(PropCreatedAt, store.Time(i.CreatedAt))
	for name, value := range i.Extra {
		e.Set(name, value)
	}
	return e
}

func InvoiceItemFromEntity(e store.Entity) InvoiceItem {
	return InvoiceItem{
		InvoiceNumber: e.PartitionKey,
		ID:            e.RowKey,
		Description:   e.GetString(PropDescription),
		Quantity:      e.GetNumber(PropQuantity).IntPart(),
		UnitPrice:     e.GetNumber(PropUnitPrice),
		TotalPrice:    e.GetNumber(PropTotalPrice),
		CreatedAt:     e.GetTime(PropCreatedAt),
		Extra:         extraProps(e, invoiceItemProps),
	}
}
