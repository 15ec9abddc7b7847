package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// PayUConfig regroupe tout ce qu'il faut pour parler à la passerelle.
// Injectée explicitement dans le client et les services — aucune lecture
// d'environnement au moment de l'appel.
type PayUConfig struct {
	BaseURL      string // ex: https://secure.payu.com
	PosID        string
	ClientID     string
	ClientSecret string
	SecondKey    string // clé MD5 pour la signature OpenPayu
	NotifyURL    string
	ContinueURL  string
	CurrencyCode string

	// Valeurs de repli quand le client ne remplit pas ses coordonnées.
	BrandName        string
	PlaceholderEmail string
}

type Config struct {
	Port      string
	JWTSecret string
	PayU      PayUConfig
}

// Load charge le fichier .env s'il existe.
func Load() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
}

// New construit la configuration depuis l'environnement, une seule fois
// au démarrage.
func New() Config {
	return Config{
		Port:      getenv("PORT", "8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		PayU: PayUConfig{
			BaseURL:          getenv("PAYU_BASE_URL", "https://secure.snd.payu.com"),
			PosID:            os.Getenv("PAYU_POS_ID"),
			ClientID:         os.Getenv("PAYU_CLIENT_ID"),
			ClientSecret:     os.Getenv("PAYU_CLIENT_SECRET"),
			SecondKey:        os.Getenv("PAYU_SECOND_KEY"),
			NotifyURL:        os.Getenv("PAYU_NOTIFY_URL"),
			ContinueURL:      os.Getenv("PAYU_CONTINUE_URL"),
			CurrencyCode:     getenv("PAYU_CURRENCY", "PLN"),
			BrandName:        getenv("SHOP_BRAND_NAME", "BoxShop"),
			PlaceholderEmail: getenv("SHOP_PLACEHOLDER_EMAIL", "zamowienia@boxshop.pl"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
