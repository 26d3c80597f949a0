package mockapi

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errRevoked = errors.New("credential revoked")

type claims struct {
	jwt.RegisteredClaims
	// Generation ties the credential to a revocation epoch.
	Generation uint64 `json:"gen"`
}

type tokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func (ti *tokenIssuer) issue(userID int64, gen uint64) (string, time.Time, error) {
	now := ti.now()
	exp := now.Add(ti.ttl)
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    ti.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Generation: gen,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign credential: %w", err)
	}
	return signed, exp, nil
}

// verify returns the user id of a valid credential issued in generation gen.
func (ti *tokenIssuer) verify(raw string, gen uint64) (int64, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ti.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	c := &claims{}
	tok, err := parser.ParseWithClaims(raw, c, func(*jwt.Token) (any, error) {
		return ti.secret, nil
	})
	if err != nil {
		return 0, err
	}
	if !tok.Valid {
		return 0, jwt.ErrTokenInvalidClaims
	}
	if c.Generation != gen {
		return 0, errRevoked
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad subject %q: %w", c.Subject, err)
	}
	return id, nil
}
