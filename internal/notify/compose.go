package notify

import (
	"fmt"
	"strings"

	"github.com/KostevSerg/flo-rustic-shop/internal/domain"
	"github.com/KostevSerg/flo-rustic-shop/internal/email"
)

const notSpecified = "Не указано"

var deliveryWindows = map[domain.DeliveryTime]string{
	domain.DeliveryTimeAny:     "Любое время",
	domain.DeliveryTimeMorning: "Утро (9:00-12:00)",
	domain.DeliveryTimeDay:     "День (12:00-18:00)",
	domain.DeliveryTimeEvening: "Вечер (18:00-21:00)",
}

// State returns the payment marker shown in the subject and body. An empty
// status on a cash order means payment on delivery.
func State(order domain.Order, status domain.PaymentStatus) string {
	switch status {
	case domain.PaymentStatusPaid:
		return "✅ ОПЛАЧЕН"
	case domain.PaymentStatusFailed:
		return "❌ ОПЛАТА НЕ ПРОШЛА"
	case domain.PaymentStatusPending:
		return "⏳ ОЖИДАЕТ ОПЛАТЫ"
	}
	if order.PaymentMethod == domain.PaymentMethodOnline {
		return "⏳ ОЖИДАЕТ ОПЛАТЫ"
	}
	return "💵 ОПЛАТА ПРИ ПОЛУЧЕНИИ"
}

// Compose renders the operator email for an order.
func Compose(order domain.Order, status domain.PaymentStatus) email.Message {
	state := State(order, status)

	var b strings.Builder
	fmt.Fprintf(&b, "🌸 Новый заказ FloRustic #%s\n", order.OrderNumber)
	fmt.Fprintf(&b, "Статус оплаты: %s\n\n", state)

	recipientName, recipientPhone := order.RecipientName, order.RecipientPhone
	if recipientName == "" {
		recipientName = order.CustomerName
	}
	if recipientPhone == "" {
		recipientPhone = order.CustomerPhone
	}
	b.WriteString("ПОЛУЧАТЕЛЬ\n")
	fmt.Fprintf(&b, "Имя: %s\n", recipientName)
	fmt.Fprintf(&b, "Телефон: %s\n\n", recipientPhone)

	if order.SenderName != "" || order.SenderPhone != "" {
		b.WriteString("ОТПРАВИТЕЛЬ\n")
		fmt.Fprintf(&b, "Имя: %s\n", orDefault(order.SenderName))
		fmt.Fprintf(&b, "Телефон: %s\n\n", orDefault(order.SenderPhone))
	}

	b.WriteString("ЗАКАЗЧИК\n")
	fmt.Fprintf(&b, "Имя: %s\n", order.CustomerName)
	fmt.Fprintf(&b, "Телефон: %s\n", order.CustomerPhone)
	fmt.Fprintf(&b, "Email: %s\n\n", orDefault(order.CustomerEmail))

	b.WriteString("ДОСТАВКА\n")
	fmt.Fprintf(&b, "Город: %s\n", city(order))
	fmt.Fprintf(&b, "Адрес: %s\n", order.DeliveryAddress)
	fmt.Fprintf(&b, "Дата: %s\n", orDefault(order.DeliveryDate))
	fmt.Fprintf(&b, "Время: %s\n\n", orDefault(deliveryWindows[order.DeliveryTime]))

	if order.PostcardText != "" {
		b.WriteString("ТЕКСТ ОТКРЫТКИ\n")
		b.WriteString(order.PostcardText)
		b.WriteString("\n\n")
	}

	b.WriteString("СОСТАВ ЗАКАЗА\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "- %s: %d шт × %s ₽ = %s ₽\n",
			item.Name, item.Quantity, item.Price.StringFixed(2), item.Total().StringFixed(2))
	}
	b.WriteString("\n")

	if order.DiscountAmount.IsPositive() {
		if order.PromoCode != "" {
			fmt.Fprintf(&b, "Промокод: %s\n", order.PromoCode)
		}
		fmt.Fprintf(&b, "Скидка: %s ₽\n", order.DiscountAmount.StringFixed(2))
	}
	fmt.Fprintf(&b, "Итого: %s ₽\n", order.TotalAmount.StringFixed(2))
	fmt.Fprintf(&b, "Способ оплаты: %s\n", paymentMethod(order.PaymentMethod))
	if order.PaymentID != "" {
		fmt.Fprintf(&b, "Платёж: %s\n", order.PaymentID)
	}

	if order.Notes != "" {
		b.WriteString("\nКОММЕНТАРИЙ\n")
		b.WriteString(order.Notes)
		b.WriteString("\n")
	}

	return email.Message{
		Subject: fmt.Sprintf("Новый заказ #%s - %s", order.OrderNumber, state),
		Body:    b.String(),
	}
}

func city(order domain.Order) string {
	switch {
	case order.CityName != "" && order.RegionName != "":
		return order.CityName + ", " + order.RegionName
	case order.CityName != "":
		return order.CityName
	default:
		return notSpecified
	}
}

func paymentMethod(m domain.PaymentMethod) string {
	if m == domain.PaymentMethodOnline {
		return "Онлайн"
	}
	return "Наличными при получении"
}

func orDefault(s string) string {
	if s == "" {
		return notSpecified
	}
	return s
}
