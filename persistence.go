package gate

import (
	persistence "github.com/goliatone/go-persistence-bun"
)

// RegisterModels registers every table with the persistence layer.
// Call before persistence.New so relations resolve.
func RegisterModels() {
	persistence.RegisterModel((*AccessRule)(nil))
	persistence.RegisterModel((*AllowedEmail)(nil))
	persistence.RegisterModel((*AccessLogEntry)(nil))
}
