package payu

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSignatureMissing  = errors.New("payu: en-tête de signature absent ou incomplet")
	ErrSignatureMismatch = errors.New("payu: signature invalide")
	ErrSignatureAlg      = errors.New("payu: algorithme de signature non supporté")
)

// Sign calcule la signature OpenPayu d'un document JSON : MD5 des octets
// du document concaténés à la clé secondaire, encodé en hexadécimal puis
// emballé dans la valeur d'en-tête structurée.
//
// ⚠️ Les octets signés doivent être exactement les octets transmis —
// toute re-sérialisation (réordonnancement des clés) casse la signature.
func Sign(payload []byte, posID, secondKey string) string {
	return fmt.Sprintf("sender=%s;signature=%s;algorithm=MD5;content=DOCUMENT",
		posID, digest(payload, secondKey))
}

// Verify contrôle la signature d'une notification entrante contre la clé
// secondaire du point de vente.
func Verify(payload []byte, header, secondKey string) error {
	fields := parseSignatureHeader(header)

	sig := fields["signature"]
	if sig == "" {
		return ErrSignatureMissing
	}
	if alg, ok := fields["algorithm"]; ok && !strings.EqualFold(alg, "MD5") {
		return fmt.Errorf("%w: %s", ErrSignatureAlg, alg)
	}

	expected := digest(payload, secondKey)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(sig))) != 1 {
		return ErrSignatureMismatch
	}
	return nil
}

func digest(payload []byte, secondKey string) string {
	h := md5.New()
	h.Write(payload)
	h.Write([]byte(secondKey))
	return hex.EncodeToString(h.Sum(nil))
}

// parseSignatureHeader découpe "sender=x;signature=y;algorithm=MD5;..."
// en paires clé/valeur.
func parseSignatureHeader(header string) map[string]string {
	fields := make(map[string]string)
	for _, part := range strings.Split(header, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		fields[strings.ToLower(k)] = v
	}
	return fields
}
