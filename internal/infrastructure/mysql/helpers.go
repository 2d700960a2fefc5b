package mysql

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

const duplicateEntryNumber = 1062

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == duplicateEntryNumber
}
