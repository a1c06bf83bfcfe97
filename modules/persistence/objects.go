package persistence

import (
	"github.com/lkarlslund/stixgraph/modules/collection"
	"github.com/lkarlslund/stixgraph/modules/stix"
	"github.com/lkarlslund/stixgraph/modules/ui"
)

const ObjectsBucket = "objects"

// ObjectRecord keeps the STIX JSON of an object, decoding happens on the way out
type ObjectRecord struct {
	Key  string `codec:"id" json:"id"`
	Type string `codec:"type" json:"type"`
	JSON string `codec:"json" json:"json"`
}

func (or ObjectRecord) ID() string {
	return or.Key
}

func NewObjectRecord(o stix.Object) (ObjectRecord, error) {
	data, err := stix.Encode(o)
	if err != nil {
		return ObjectRecord{}, err
	}
	return ObjectRecord{
		Key:  o.Common().ID.String(),
		Type: o.ObjectType(),
		JSON: string(data),
	}, nil
}

func (or ObjectRecord) Object() (stix.Object, error) {
	return stix.Decode([]byte(or.JSON))
}

func (d *Database) Objects() Store[ObjectRecord] {
	return GetStorage[ObjectRecord](d, ObjectsBucket, false)
}

// SaveCollection persists every object in c
func (d *Database) SaveCollection(c *collection.Collection) (int, error) {
	records := make([]ObjectRecord, 0, c.Len())
	var err error
	c.Iterate(func(o stix.Object) bool {
		var record ObjectRecord
		record, err = NewObjectRecord(o)
		if err != nil {
			return false
		}
		records = append(records, record)
		return true
	})
	if err != nil {
		return 0, err
	}
	return len(records), d.Objects().PutMany(records)
}

// LoadCollection decodes every persisted object, skipping records that no longer decode
func (d *Database) LoadCollection() (*collection.Collection, error) {
	records, err := d.Objects().List()
	if err != nil {
		return nil, err
	}
	c := collection.New()
	for _, record := range records {
		o, err := record.Object()
		if err != nil {
			ui.Warn().Msgf("Skipping persisted object %v: %v", record.Key, err)
			continue
		}
		c.Add(o)
	}
	return c, nil
}
