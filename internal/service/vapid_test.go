package service

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testSeed() []byte {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	return seed
}

func TestLoadVAPIDPrivateKeyBase64(t *testing.T) {
	seed := testSeed()

	// web-push 도구는 패딩 없는 url-safe base64를 출력한다
	raw := base64.RawURLEncoding.EncodeToString(seed)
	key, err := loadVAPIDPrivateKey(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.D.Sign() == 0 {
		t.Fatal("expected non-zero scalar")
	}

	// 패딩이 있어도 같은 키가 나와야 한다
	padded := base64.URLEncoding.EncodeToString(seed)
	key2, err := loadVAPIDPrivateKey(padded)
	if err != nil {
		t.Fatalf("unexpected error with padding: %v", err)
	}
	if key.D.Cmp(key2.D) != 0 {
		t.Fatal("padded and unpadded inputs produced different keys")
	}
}

func TestLoadVAPIDPrivateKeyWrongLength(t *testing.T) {
	raw := base64.RawURLEncoding.EncodeToString([]byte("too-short"))
	if _, err := loadVAPIDPrivateKey(raw); !errors.Is(err, ErrVAPIDKeyLength) {
		t.Fatalf("expected ErrVAPIDKeyLength, got %v", err)
	}
}

func TestLoadVAPIDPrivateKeyEmpty(t *testing.T) {
	if _, err := loadVAPIDPrivateKey("  "); !errors.Is(err, ErrVAPIDKeyMissing) {
		t.Fatalf("expected ErrVAPIDKeyMissing, got %v", err)
	}
}

func TestLoadVAPIDPrivateKeyPEM(t *testing.T) {
	generated, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalECPrivateKey(generated)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	pemStr := string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}))

	key, err := loadVAPIDPrivateKey(pemStr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.D.Cmp(generated.D) != 0 {
		t.Fatal("PEM round-trip produced a different key")
	}
}

func TestLoadVAPIDPrivateKeyPKCS8(t *testing.T) {
	generated, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(generated)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	pemStr := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))

	key, err := loadVAPIDPrivateKey(pemStr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.D.Cmp(generated.D) != 0 {
		t.Fatal("PKCS#8 round-trip produced a different key")
	}
}

func TestVAPIDAudience(t *testing.T) {
	aud, err := vapidAudience("https://fcm.googleapis.com/fcm/send/abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aud != "https://fcm.googleapis.com" {
		t.Fatalf("unexpected audience: %s", aud)
	}

	if _, err := vapidAudience("not a url"); err == nil {
		t.Fatal("expected error for invalid endpoint")
	}
}

func TestSignVAPIDClaims(t *testing.T) {
	raw := base64.RawURLEncoding.EncodeToString(testSeed())
	subject := "mailto:admin@school.local"

	before := time.Now()
	token, err := signVAPID(raw, "https://push.example.com/send/xyz", subject)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)

	if claims["aud"] != "https://push.example.com" {
		t.Fatalf("unexpected aud: %v", claims["aud"])
	}
	if claims["sub"] != subject {
		t.Fatalf("unexpected sub: %v", claims["sub"])
	}
	if parsed.Method.Alg() != "ES256" {
		t.Fatalf("unexpected alg: %s", parsed.Method.Alg())
	}

	exp := int64(claims["exp"].(float64))
	wantMin := before.Add(vapidTokenTTL - time.Minute).Unix()
	wantMax := time.Now().Add(vapidTokenTTL + time.Minute).Unix()
	if exp < wantMin || exp > wantMax {
		t.Fatalf("exp %d out of expected range [%d, %d]", exp, wantMin, wantMax)
	}
}
