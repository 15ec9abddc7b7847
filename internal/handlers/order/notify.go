package order

import (
	"log"
	"net/http"

	"boxshop_back_end/internal/payu"
	"boxshop_back_end/internal/service"

	"github.com/gin-gonic/gin"
)

type NotifyHandler struct {
	reconciler *service.Reconciler
	secondKey  string
}

func NewNotifyHandler(rec *service.Reconciler, secondKey string) *NotifyHandler {
	return &NotifyHandler{reconciler: rec, secondKey: secondKey}
}

// Notify reçoit les notifications asynchrones de PayU. Protocole :
// toujours répondre 200, même si le traitement interne échoue — un
// code d'erreur relancerait les réessais de la passerelle et
// amplifierait un bug local. Les échecs internes sont journalisés et
// comptés, jamais exposés.
func (h *NotifyHandler) Notify(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture payload notification échouée:", err)
		c.Status(http.StatusOK)
		return
	}

	if h.secondKey == "" {
		log.Println("⚠️ Pas de PAYU_SECOND_KEY — notification acceptée sans vérification (mode test)")
	} else if err := payu.Verify(payload, c.GetHeader("OpenPayu-Signature"), h.secondKey); err != nil {
		// Un appelant non authentifié n'est pas PayU : on refuse, le
		// contrat "toujours 200" ne vaut que pour la passerelle.
		log.Println("❌ Signature de notification invalide:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
		return
	}

	if err := h.reconciler.HandleNotification(c.Request.Context(), payload); err != nil {
		log.Println("❌ Traitement notification échoué:", err)
	}

	c.Status(http.StatusOK)
}
