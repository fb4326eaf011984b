package main

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"goaspect/internal/services"
	"goaspect/pkg/aop"
	"goaspect/pkg/container"
	"goaspect/pkg/logger"
	"goaspect/pkg/reflection"
)

// Interfaces for the plain (non-intercepted) e-commerce demo: struct-tag
// injection and lifecycle hooks, no aspects.
type PaymentProcessor interface {
	ProcessPayment(amount float64, currency string) error
}

type InventoryService interface {
	CheckStock(productID string) (int, error)
	UpdateStock(productID string, quantity int) error
}

type NotificationService interface {
	NotifyUser(userID string, message string) error
}

type OrderItem struct {
	ProductID string
	Quantity  int
	Price     float64
}

type stripePaymentProcessor struct {
	apiKey string
}

func NewPaymentProcessor(apiKey string) PaymentProcessor {
	logger.Get().Infow("Creating new payment processor", "apiKey", apiKey)
	return &stripePaymentProcessor{apiKey: apiKey}
}

func (s *stripePaymentProcessor) ProcessPayment(amount float64, currency string) error {
	log := logger.Get()
	log.Infow("Processing payment", "amount", amount, "currency", currency, "processor", "stripe")
	time.Sleep(10 * time.Millisecond)
	log.Info("Payment processed successfully")
	return nil
}

type warehouseInventoryService struct {
	database map[string]int
}

func NewInventoryService() InventoryService {
	service := &warehouseInventoryService{database: map[string]int{"PROD-1": 100, "PROD-2": 50}}
	logger.Get().Infow("Creating new inventory service", "initialStock", service.database)
	return service
}

func (w *warehouseInventoryService) CheckStock(productID string) (int, error) {
	if qty, exists := w.database[productID]; exists {
		return qty, nil
	}
	return 0, errors.New("product not found")
}

func (w *warehouseInventoryService) UpdateStock(productID string, quantity int) error {
	w.database[productID] = w.database[productID] + quantity
	return nil
}

type orderServiceImpl struct {
	PaymentProcessor PaymentProcessor    `di:"paymentService" required:"true"`
	Inventory        InventoryService    `di:"inventoryService" required:"true"`
	Notifications    NotificationService `di:"notificationService" required:"true"`
}

func NewOrderService() *orderServiceImpl {
	logger.Get().Info("Creating new order service")
	return &orderServiceImpl{}
}

func (o *orderServiceImpl) CreateOrder(userID string, items []OrderItem) (string, error) {
	log := logger.Get()
	for _, item := range items {
		stock, err := o.Inventory.CheckStock(item.ProductID)
		if err != nil {
			return "", err
		}
		if stock < item.Quantity {
			return "", errors.New("insufficient stock")
		}
	}

	total := 0.0
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}

	if err := o.PaymentProcessor.ProcessPayment(total, "USD"); err != nil {
		return "", err
	}

	for _, item := range items {
		if err := o.Inventory.UpdateStock(item.ProductID, -item.Quantity); err != nil {
			return "", err
		}
	}

	if err := o.Notifications.NotifyUser(userID, "Order placed successfully!"); err != nil {
		log.Errorw("Notification failed", "error", err)
	}

	orderID := fmt.Sprintf("ORDER-%d", len(items))
	log.Infow("Order created successfully", "orderID", orderID)
	return orderID, nil
}

type emailNotificationService struct {
	retryCount int
}

func NewNotificationService() NotificationService {
	return &emailNotificationService{retryCount: 0}
}

func (e *emailNotificationService) NotifyUser(userID string, message string) error {
	logger.Get().Infow("Sending notification", "userID", userID, "message", message)
	return nil
}

// calculatorInstanceProvider resolves the advice types used by the
// TypeListMethod scenario (spec.md §6.2's TypeList form) the first time
// that pointcut is dispatched.
func calculatorInstanceProvider() aop.InstanceProvider {
	return func(t reflect.Type) (interface{}, error) {
		switch t {
		case reflect.TypeOf((*services.LoggingAdvice)(nil)):
			return &services.LoggingAdvice{Log: logger.Get()}, nil
		case reflect.TypeOf((*services.ValidationAdvice)(nil)):
			return &services.ValidationAdvice{}, nil
		default:
			return nil, fmt.Errorf("no instance provider case for type %s", t)
		}
	}
}

func main() {
	logger.Initialize(true)
	defer logger.Sync()
	log := logger.Get()

	log.Info("Starting application")

	di := container.NewContainer()
	di.SetActiveProfiles("dev", "local")

	di.GetLifecycleManager().AddPostConstructHook(container.LifecycleHook{
		Name:     "ServiceInitializer",
		Priority: 1,
		Handler: func(service interface{}) error {
			log.Infow("Initializing service", "type", fmt.Sprintf("%T", service))
			return nil
		},
	})

	// --- Part 1: the Calculator aspect demo (spec.md §8 scenarios) ---

	log.Info("=== Wiring Calculator aspects ===")
	var recorder []string
	if err := services.RegisterCalculatorAspect(di.Generator(), di.Registry(), &recorder); err != nil {
		log.Fatalw("Failed to register calculator aspect", "error", err)
	}
	di.SetInstanceProvider(calculatorInstanceProvider())

	if err := di.Register("calculator", services.NewCalculator(10), container.Singleton); err != nil {
		log.Fatalw("Failed to register calculator", "error", err)
	}

	resolved, err := di.Resolve("calculator")
	if err != nil {
		log.Fatalw("Failed to resolve calculator", "error", err)
	}
	calc, ok := resolved.(services.Calculator)
	if !ok {
		log.Fatal("resolved calculator does not implement services.Calculator")
	}

	if result, err := calc.OneAdvice(2); err != nil {
		log.Errorw("OneAdvice failed", "error", err)
	} else {
		log.Infow("OneAdvice result", "value", result.X)
	}

	if result, err := calc.Chained(3); err != nil {
		log.Errorw("Chained failed", "error", err)
	} else {
		log.Infow("Chained result (first call)", "value", result.X)
	}
	if result, err := calc.Chained(3); err != nil {
		log.Errorw("Chained failed", "error", err)
	} else {
		log.Infow("Chained result (cached call)", "value", result.X)
	}

	if _, err := calc.Bundled(); err != nil {
		log.Errorw("Bundled failed", "error", err)
	}

	if _, err := calc.TypeListMethod(); err != nil {
		log.Errorw("TypeListMethod failed", "error", err)
	}

	future := calc.GetValueAsync(context.Background())
	value, err := aop.AwaitAs[float64](context.Background(), future)
	if err != nil {
		log.Errorw("GetValueAsync failed", "error", err)
	} else {
		log.Infow("GetValueAsync result", "value", value)
	}

	log.Infow("Advice call journal", "entries", recorder)

	// --- Part 2: plain struct-tag injection and lifecycle hooks ---

	log.Info("=== Registering plain e-commerce services ===")
	paymentService := NewPaymentProcessor("sk_test_123")
	inventoryService := NewInventoryService()
	orderService := NewOrderService()
	notificationService := NewNotificationService()

	if err := di.Register("paymentService", paymentService, container.Singleton); err != nil {
		log.Fatalw("Failed to register payment service", "error", err)
	}
	if err := di.Register("inventoryService", inventoryService, container.Singleton); err != nil {
		log.Fatalw("Failed to register inventory service", "error", err)
	}
	if err := di.Register("orderService", orderService, container.Singleton); err != nil {
		log.Fatalw("Failed to register order service", "error", err)
	}
	if err := di.Register("notificationService", notificationService, container.Prototype); err != nil {
		log.Fatalw("Failed to register notification service", "error", err)
	}

	if err := di.InjectStruct(orderService); err != nil {
		log.Fatalw("Dependency injection failed", "error", err, "service", "orderService")
	}

	items := []OrderItem{
		{ProductID: "PROD-1", Quantity: 2, Price: 29.99},
		{ProductID: "PROD-2", Quantity: 1, Price: 49.99},
	}
	orderID, err := orderService.CreateOrder("USER-123", items)
	if err != nil {
		log.Errorw("Order creation failed", "error", err)
	} else {
		log.Infow("Order created successfully", "orderID", orderID, "items", len(items))
	}

	// --- Part 3: reflection-based inspection of the aspect target ---

	log.Info("=== Inspecting Calculator's aspect metadata ===")
	inspector := reflection.NewInspector(di.Generator(), di.Registry())
	info, err := inspector.InspectStruct(services.NewCalculator(1))
	if err != nil {
		log.Errorw("Inspection failed", "error", err)
	} else {
		fmt.Println(inspector.PrettyPrint(info))
	}

	log.Info("Performing cleanup...")
	if err := di.Cleanup(); err != nil {
		log.Errorw("Cleanup failed", "error", err)
	}

	log.Info("Application shutdown complete")
}
