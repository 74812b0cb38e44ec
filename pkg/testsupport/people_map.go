package testsupport

import (
	"github.com/goliatone/go-dto/pkg/mutate"
	"github.com/goliatone/go-dto/pkg/payload"
	"github.com/goliatone/go-dto/pkg/validate"
)

// Payload type names of the fixtures.
const (
	AddressMapName = "AddressMap"
	PersonMapName  = "PersonMap"
	AddressName    = "Address"
	PersonName     = "Person"
)

func init() {
	payload.Register(AddressMapName, func() any { return NewAddressMap() })
	payload.Register(PersonMapName, func() any { return NewPersonMap() })
	payload.Register(AddressName, func() any { return NewAddress() })
	payload.Register(PersonName, func() any { return NewPerson() })
}

// NewAddressMap declares a postal address. Setting the country upper-cases it
// and switches the postal code validator to that country's format.
func NewAddressMap(opts ...payload.Option) *payload.Map {
	return payload.NewMap(AddressMapName, func(m *payload.Map) {
		m.Add("address").Required()
		m.Add("number").Required()
		m.Add("complement")
		m.Add("district").Required()
		m.Add("city").Required()
		m.Add("country").ExportAs("country_id").Validator(validate.CountryCode()).Required()
		m.Add("postal_code").Required()

		m.Setter("district", mutate.Setter(mutate.Title()))
		m.Setter("city", mutate.Setter(mutate.Title()))
		m.Setter("country", setCountry)
		m.Setter("postal_code", mutate.Setter(mutate.Digits()))
	}, opts...)
}

func setCountry(m *payload.Map, value any) (any, error) {
	upper, err := mutate.Upper()(value)
	if err != nil {
		return nil, err
	}
	country, _ := upper.(string)
	if postal, ok := m.GetField("postal_code"); ok {
		postal.Validator(validate.PostalCode(country))
	}
	return upper, nil
}

// NewPersonMap declares a contact with a nested AddressMap.
func NewPersonMap(opts ...payload.Option) *payload.Map {
	return payload.NewMap(PersonMapName, func(m *payload.Map) {
		m.Add("name").Required()
		m.Add("email").Validator(validate.Email()).Required()
		m.Add("phone").Validator(validate.Phone())
		m.Add("address")

		m.Setter("address", setAddressMap)
	}, opts...)
}

func setAddressMap(_ *payload.Map, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if address, ok := value.(*payload.Map); ok && address.Name() == AddressMapName {
		return address, nil
	}
	address := NewAddressMap()
	if err := address.Import(value); err != nil {
		return nil, err
	}
	return address, nil
}
