package service

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RFC 8292: VAPID 토큰은 최대 24시간, 여기서는 원본과 같이 12시간 유효
const vapidTokenTTL = 12 * time.Hour

var (
	ErrVAPIDKeyMissing = errors.New("VAPID private key is not configured")
	ErrVAPIDKeyLength  = errors.New("invalid VAPID key length")
)

// loadVAPIDPrivateKey 설정 문자열을 서명용 EC 개인키로 변환한다.
//
// 지원 형식:
//   - EC PEM 문자열 (-----BEGIN 으로 시작, SEC1 또는 PKCS#8)
//   - url-safe base64 (web-push 계열 도구가 출력하는 43/44자 키, 32바이트 시드)
func loadVAPIDPrivateKey(raw string) (*ecdsa.PrivateKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrVAPIDKeyMissing
	}

	if strings.HasPrefix(raw, "-----BEGIN") {
		block, _ := pem.Decode([]byte(raw))
		if block == nil {
			return nil, errors.New("malformed PEM VAPID key")
		}
		if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
			return key, nil
		}
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse PEM VAPID key: %w", err)
		}
		key, ok := parsed.(*ecdsa.PrivateKey)
		if !ok {
			return nil, errors.New("PEM VAPID key is not an EC key")
		}
		return key, nil
	}

	// url-safe base64 → 표준 알파벳으로 치환 후 패딩 보정
	b64 := strings.NewReplacer("-", "+", "_", "/").Replace(raw)
	if pad := len(b64) % 4; pad != 0 {
		b64 += strings.Repeat("=", 4-pad)
	}
	seed, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decode VAPID key: %w", err)
	}

	if len(seed) != 32 {
		// P-256(secp256r1) 스칼라는 정확히 32바이트여야 한다
		return nil, ErrVAPIDKeyLength
	}

	curve := elliptic.P256()
	x, y := curve.ScalarBaseMult(seed)
	return &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: curve, X: x, Y: y},
		D:         new(big.Int).SetBytes(seed),
	}, nil
}

// vapidAudience 푸시 endpoint에서 scheme://host 를 추출한다.
// 예: https://fcm.googleapis.com/fcm/send/xxx → https://fcm.googleapis.com
func vapidAudience(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid push endpoint: %q", endpoint)
	}
	return u.Scheme + "://" + u.Host, nil
}

// signVAPID endpoint 대상의 단기 서명 토큰(ES256 JWT)을 만든다.
// audience가 endpoint마다 다르고 서명 비용이 낮아 캐싱하지 않는다.
func signVAPID(privateKey, endpoint, subject string) (string, error) {
	key, err := loadVAPIDPrivateKey(privateKey)
	if err != nil {
		return "", err
	}

	aud, err := vapidAudience(endpoint)
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"aud": aud,
		"exp": time.Now().Add(vapidTokenTTL).Unix(),
		"sub": subject,
	}

	return jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(key)
}
