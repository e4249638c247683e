package storage

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Client оборачивает go-redis клиент, который служит хранилищем кэша
// отрендеренных виджетов.
type Client struct {
	*redis.Client
}

func NewClient(addr, password string, db int) *Client {
	return &Client{
		Client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// HealthCheck проверяет соединение. Кэш не критичен для выдачи виджетов,
// поэтому ошибка здесь не должна останавливать приложение.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

func (c *Client) Close() {
	c.Client.Close()
}
