package repository

import "errors"

// ErrNotFound возвращают методы чтения, когда строки нет.
var ErrNotFound = errors.New("record not found")
