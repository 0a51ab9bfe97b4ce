package mocks

//go:generate mockgen -destination=store_mocks.go -package=mocks sellwatch/internal/store SaleStore,SaleLister,SeenHistory,StatusStore
//go:generate mockgen -destination=notify_mocks.go -package=mocks sellwatch/internal/notify Notifier
//go:generate mockgen -destination=kafka_mocks.go -package=mocks sellwatch/internal/kafka MessageReader,MessageWriter
//go:generate mockgen -destination=graph_mocks.go -package=mocks sellwatch/internal/graph DriverSessioner,SessionRunner
