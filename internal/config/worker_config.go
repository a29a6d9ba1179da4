package config

import "os"

// WorkerConfig holds configuration for the reminder worker, which runs the
// periodic reminder pass and the notification outbox relay.
type WorkerConfig struct {
	DatabaseURL           string
	RedisAddress          string
	RedisPassword         string
	RabbitMQURL           string
	NotificationQueueName string
	ReminderCronSpec      string
}

func LoadWorkerConfig() *WorkerConfig {
	dbURL := os.Getenv("DB_CONNECTION_STRING")
	if dbURL == "" {
		panic("DB_CONNECTION_STRING environment variable is required")
	}

	rabbitURL := os.Getenv("RABBITMQ_URL")
	if rabbitURL == "" {
		panic("RABBITMQ_URL environment variable is required")
	}

	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	queueName := os.Getenv("NOTIFICATION_QUEUE_NAME")
	if queueName == "" {
		queueName = "notifications"
	}

	cronSpec := os.Getenv("REMINDER_CRON")
	if cronSpec == "" {
		// Minute 0 of every sixth hour.
		cronSpec = "0 */6 * * *"
	}

	return &WorkerConfig{
		DatabaseURL:           dbURL,
		RedisAddress:          redisAddr,
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RabbitMQURL:           rabbitURL,
		NotificationQueueName: queueName,
		ReminderCronSpec:      cronSpec,
	}
}
