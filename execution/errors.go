package execution

import (
	"fmt"

	"coredb/storage/catalog"
)

func tableNotFoundError(oid catalog.OID) error {
	return fmt.Errorf("execution: table %d not found", oid)
}

func indexNotFoundError(oid catalog.OID) error {
	return fmt.Errorf("execution: index %d not found", oid)
}
