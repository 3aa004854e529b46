package main

import (
	"os"

	"github.com/ipaas-org/airflow-publisher/app"
	"github.com/ipaas-org/airflow-publisher/model"
)

func main() {
	os.Exit(app.RunRole(model.RoleScheduler))
}
