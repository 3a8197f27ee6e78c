package main

import (
	"github.com/deploymenttheory/go-fwu/internal/deploy"
	"github.com/deploymenttheory/go-fwu/internal/logging"
)

func buildDeployment() (*deploy.Deployment, error) {
	log, err := logging.New(verbose)
	if err != nil {
		return nil, err
	}
	defer log.Sync() //nolint:errcheck

	cfg, err := deploy.Load(deployPath)
	if err != nil {
		return nil, err
	}
	return deploy.Build(cfg, log)
}
