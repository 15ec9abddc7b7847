package utils

import (
	"fmt"
	"log"
	"os"

	"boxshop_back_end/internal/models"

	"github.com/wneessen/go-mail"
)

// SendConfirmationEmail envoie l'e-mail de confirmation via SMTP.
func SendConfirmationEmail(to, subject, htmlBody string) error {
	msg := mail.NewMsg()

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "noreply@boxshop.pl"
	}
	if err := msg.From(from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	host := os.Getenv("SMTP_HOST")
	if host == "" {
		host = "ssl0.ovh.net"
	}

	client, err := mail.NewClient(host,
		mail.WithPort(587),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// GenerateOrderConfirmationHTML génère le HTML de confirmation de commande
func GenerateOrderConfirmationHTML(order models.Order) string {
	itemsHTML := ""
	for _, item := range order.Cart {
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td>%s</td>
				<td>%d</td>
				<td>%.2f zł</td>
				<td>%.2f zł</td>
			</tr>`, item.Name, item.Quantity, item.Price, item.Price*float64(item.Quantity))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="pl">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Potwierdzenie zamówienia</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Potwierdzenie zamówienia %s</h2>
		<p>Dziękujemy! Twoja płatność została zaksięgowana.</p>

		<h3>Szczegóły zamówienia</h3>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Produkt</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Ilość</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Cena</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Razem</th>
				</tr>
			</thead>
			<tbody>%s</tbody>
		</table>

		<p style="font-size: 18px;"><strong>Suma: %.2f zł</strong></p>
		<p style="color: #888; font-size: 12px;">Numer zamówienia: %s</p>
	</div>
</body>
</html>`, order.LocalOrderID, itemsHTML, order.Total, order.LocalOrderID)
}
