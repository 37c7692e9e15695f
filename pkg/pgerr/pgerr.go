package pgerr

import (
	"errors"

	"github.com/lib/pq"
)

// ErrContended возвращается, когда транзакция не смогла получить блокировку
// или была отменена из-за конфликта сериализации. Ошибку можно повторить.
var ErrContended = errors.New("storage: contended, retry later")

// Коды ошибок PostgreSQL
const (
	CodeSerializationFailure pq.ErrorCode = "40001"
	CodeDeadlockDetected     pq.ErrorCode = "40P01"
	CodeLockNotAvailable     pq.ErrorCode = "55P03"
	CodeExclusionViolation   pq.ErrorCode = "23P01"
	CodeUniqueViolation      pq.ErrorCode = "23505"
	CodeForeignKeyViolation  pq.ErrorCode = "23503"
	CodeInsufficientPrivs    pq.ErrorCode = "42501"
)

// Code возвращает код ошибки PostgreSQL или пустую строку
func Code(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

// Constraint возвращает имя нарушенного ограничения
func Constraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}

// IsContention true для ошибок, после которых транзакцию можно повторить
func IsContention(err error) bool {
	if errors.Is(err, ErrContended) {
		return true
	}
	switch Code(err) {
	case CodeSerializationFailure, CodeDeadlockDetected, CodeLockNotAvailable:
		return true
	}
	return false
}

func IsExclusionViolation(err error) bool {
	return Code(err) == CodeExclusionViolation
}

func IsUniqueViolation(err error) bool {
	return Code(err) == CodeUniqueViolation
}

func IsForeignKeyViolation(err error) bool {
	return Code(err) == CodeForeignKeyViolation
}

// IsRowSecurityViolation true, если запись отклонена политикой RLS
func IsRowSecurityViolation(err error) bool {
	return Code(err) == CodeInsufficientPrivs
}
