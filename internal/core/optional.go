package core

import "encoding/json"

// OptionalID tells an absent JSON field apart from an explicit null.
type OptionalID struct {
	Set   bool
	Value *int64
}

func (o *OptionalID) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return Validationf("expected an integer id or null")
	}
	o.Value = &v
	return nil
}

// SomeID is a set OptionalID holding id.
func SomeID(id int64) OptionalID {
	return OptionalID{Set: true, Value: &id}
}

// NoID is a set OptionalID holding null.
func NoID() OptionalID {
	return OptionalID{Set: true}
}

// OptionalDate tells an absent JSON date apart from an explicit null.
type OptionalDate struct {
	Set   bool
	Value *Date
}

func (o *OptionalDate) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var d Date
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	o.Value = &d
	return nil
}
