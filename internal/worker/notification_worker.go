package worker

import (
	"github.com/northwind-commerce/storefront-service/internal/service"
)

// StartNotificationWorker subscribes the notification service to
// impersonation events. Handlers run synchronously on the publishing request.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
