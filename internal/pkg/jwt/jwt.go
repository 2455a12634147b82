// Package jwt verifies access tokens issued by the HRIS auth service.
// This service never issues tokens of its own.
package jwt

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-performance-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-performance-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

type Service interface {
	JWTAuth() *jwtauth.JWTAuth
	CallerFromContext(ctx context.Context) (user.Caller, error)
}

type JWTService struct {
	tokenAuth *jwtauth.JWTAuth
}

func NewJWTService(secretKey string) Service {
	return &JWTService{
		tokenAuth: jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// CallerFromContext reads the verified token placed in ctx by jwtauth.Verifier.
func (j *JWTService) CallerFromContext(ctx context.Context) (user.Caller, error) {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return user.Caller{}, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}
	if token == nil {
		return user.Caller{}, auth.ErrInvalidToken
	}
	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return user.Caller{}, auth.ErrInvalidToken
	}

	caller := user.Caller{}
	caller.UserID, _ = claims["user_id"].(string)
	caller.EmployeeID, _ = claims["employee_id"].(string)
	role, _ := claims["role"].(string)
	caller.Role = user.Role(role)

	if caller.UserID == "" {
		return user.Caller{}, auth.ErrInvalidToken
	}
	return caller, nil
}
