package testsupport

import (
	"regexp"

	"github.com/goliatone/go-dto/pkg/mutate"
	"github.com/goliatone/go-dto/pkg/payload"
	"github.com/goliatone/go-dto/pkg/validate"
)

// Address is the freeform flavour of AddressMap. Its setters validate
// eagerly and fail the import.
type Address struct {
	*payload.Array
}

// NewAddress returns an empty Address.
func NewAddress(opts ...payload.Option) *Address {
	a := &Address{}
	opts = append(opts,
		payload.WithValidation(func(arr *payload.Array) error {
			return arr.ValidateRequired("address", "number", "district", "city", "country_id", "postal_code")
		}),
		payload.WithImporter(func(arr *payload.Array, input *payload.Values) error {
			return arr.ImportBindings([]payload.Binding{
				payload.BindSetter("address", a.SetAddress),
				payload.BindSetter("number", a.SetNumber),
				payload.BindSetter("complement", a.SetComplement),
				payload.BindSetter("district", a.SetDistrict),
				payload.BindSetter("city", a.SetCity),
				payload.BindSetter("country_id", a.SetCountry),
				payload.BindSetter("postal_code", a.SetPostalCode),
			}, input)
		}),
	)
	a.Array = payload.NewArray(AddressName, opts...)
	return a
}

func (a *Address) SetAddress(value any) error    { return a.setText("address", value, nil) }
func (a *Address) SetNumber(value any) error     { return a.setText("number", value, nil) }
func (a *Address) SetComplement(value any) error { return a.setText("complement", value, nil) }

func (a *Address) SetDistrict(value any) error {
	return a.setText("district", value, mutate.Title())
}

func (a *Address) SetCity(value any) error {
	return a.setText("city", value, mutate.Title())
}

// SetCountry accepts ISO 3166-1 alpha-2 codes and stores them upper-cased.
func (a *Address) SetCountry(value any) error {
	text, err := asText(a.Array, "country_id", value)
	if err != nil {
		return err
	}
	if !validate.IsCountry(text) {
		return payload.NewInvalidData(a.Name(), "country_id", text, "Invalid country code.")
	}
	return a.setText("country_id", text, mutate.Upper())
}

var nonDigits = regexp.MustCompile(`\D`)

// SetPostalCode checks the code against the stored country, US when none is
// set yet, and stores its digits.
func (a *Address) SetPostalCode(value any) error {
	text, err := asText(a.Array, "postal_code", value)
	if err != nil {
		return err
	}
	country, _ := a.Get("country_id", "US").(string)
	if !validate.PostalCode(country).Validate(text) {
		return payload.NewInvalidData(a.Name(), "postal_code", text, "Invalid postal code.")
	}
	a.Add("postal_code", nonDigits.ReplaceAllString(text, ""))
	return nil
}

func (a *Address) setText(key string, value any, fn mutate.Func) error {
	text, err := asText(a.Array, key, value)
	if err != nil {
		return err
	}
	var out any = text
	if fn != nil {
		if out, err = fn(text); err != nil {
			return err
		}
	}
	a.Add(key, out)
	return nil
}

// Person is the freeform flavour of PersonMap.
type Person struct {
	*payload.Array
}

// NewPerson returns an empty Person.
func NewPerson(opts ...payload.Option) *Person {
	p := &Person{}
	opts = append(opts,
		payload.WithValidation(func(arr *payload.Array) error {
			if err := arr.ValidateRequired("address", "name", "email", "phone"); err != nil {
				return err
			}
			return arr.ValidateDepth()
		}),
		payload.WithImporter(func(arr *payload.Array, input *payload.Values) error {
			return arr.ImportBindings([]payload.Binding{
				payload.BindSetter("name", p.SetName),
				payload.BindSetter("email", p.SetEmail),
				payload.BindSetter("phone", p.SetPhone),
				payload.BindSetter("address", p.SetAddress),
			}, input)
		}),
	)
	p.Array = payload.NewArray(PersonName, opts...)
	return p
}

func (p *Person) SetName(value any) error {
	text, err := asText(p.Array, "name", value)
	if err != nil {
		return err
	}
	title, _ := mutate.Title()(text)
	p.Add("name", title)
	return nil
}

func (p *Person) SetEmail(value any) error {
	return p.checked("email", value, validate.Email(), "Invalid e-mail.")
}

func (p *Person) SetPhone(value any) error {
	return p.checked("phone", value, validate.Phone(), "Invalid phone.")
}

// SetAddress stores an *Address as is and imports anything else into a new
// one.
func (p *Person) SetAddress(value any) error {
	address, ok := value.(*Address)
	if !ok {
		address = NewAddress()
		if err := address.Import(value); err != nil {
			return err
		}
	}
	p.Add("address", address)
	return nil
}

func (p *Person) checked(key string, value any, rule validate.Validator, hint string) error {
	text, err := asText(p.Array, key, value)
	if err != nil {
		return err
	}
	if !rule.Validate(text) {
		return payload.NewInvalidData(p.Name(), key, text, hint)
	}
	p.Add(key, text)
	return nil
}

func asText(a *payload.Array, key string, value any) (string, error) {
	text, ok := value.(string)
	if !ok {
		return "", payload.NewInvalidData(a.Name(), key, value, "Expected text.")
	}
	return text, nil
}
