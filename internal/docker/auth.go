// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package docker holds registry authorization details and image
// reference helpers shared by the broker and the deployment model.
package docker

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/distribution/reference"
	"github.com/docker/docker/api/types/registry"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"gopkg.in/yaml.v2"
)

var logger = loggo.GetLogger("berth.docker")

// TokenAuthConfig contains authorization information for token auth.
type TokenAuthConfig struct {
	// IdentityToken is used to authenticate the user and get
	// an access token for the registry.
	IdentityToken string `json:"identitytoken,omitempty" yaml:"identitytoken,omitempty"`

	// RegistryToken is a bearer token to be sent to a registry.
	RegistryToken string `json:"registrytoken,omitempty" yaml:"registrytoken,omitempty"`
}

// Empty checks if the auth information is empty.
func (ac TokenAuthConfig) Empty() bool {
	return ac.IdentityToken == "" && ac.RegistryToken == ""
}

// BasicAuthConfig contains authorization information for basic auth.
type BasicAuthConfig struct {
	// Auth is the base64 encoded "username:password" string.
	Auth string `json:"auth,omitempty" yaml:"auth,omitempty"`

	// Username holds the username used to gain access to a non-public image.
	Username string `json:"username" yaml:"username"`

	// Password holds the password used to gain access to a non-public image.
	Password string `json:"password" yaml:"password"`
}

// Empty checks if the auth information is empty.
func (ba BasicAuthConfig) Empty() bool {
	return ba.Auth == "" && ba.Username == "" && ba.Password == ""
}

func (ba *BasicAuthConfig) init() {
	if ba.Empty() || ba.Auth != "" {
		return
	}
	ba.Auth = base64.StdEncoding.EncodeToString([]byte(ba.Username + ":" + ba.Password))
}

// ImageRepoDetails contains authorization information for connecting
// to a registry.
type ImageRepoDetails struct {
	BasicAuthConfig `json:",inline" yaml:",inline"`
	TokenAuthConfig `json:",inline" yaml:",inline"`

	// Repository is the namespace of the image repo.
	Repository string `json:"repository,omitempty" yaml:"repository,omitempty"`

	// ServerAddress is the auth server address.
	ServerAddress string `json:"serveraddress,omitempty" yaml:"serveraddress,omitempty"`
}

// Empty checks if the details are empty.
func (rid ImageRepoDetails) Empty() bool {
	return rid == ImageRepoDetails{}
}

// IsPrivate reports whether the repository needs credentials at all.
func (rid ImageRepoDetails) IsPrivate() bool {
	return !rid.BasicAuthConfig.Empty() || !rid.TokenAuthConfig.Empty()
}

// String returns yaml format with credentials elided.
func (rid ImageRepoDetails) String() string {
	rid.BasicAuthConfig = BasicAuthConfig{}
	rid.TokenAuthConfig = TokenAuthConfig{}
	d, _ := yaml.Marshal(rid)
	return string(d)
}

// Validate validates the details.
func (rid *ImageRepoDetails) Validate() error {
	if rid.Repository == "" {
		return errors.NotValidf("empty repository")
	}
	_, err := reference.ParseNormalizedNamed(rid.Repository)
	if err != nil {
		return errors.NewNotValid(err, fmt.Sprintf("image repository %q", rid.Repository))
	}
	return nil
}

// RegistryAuth returns the credentials in the encoded form the engine
// expects in the X-Registry-Auth header of a pull request. Public
// repositories yield an empty string.
func (rid ImageRepoDetails) RegistryAuth() (string, error) {
	if !rid.IsPrivate() {
		return "", nil
	}
	auth := registry.AuthConfig{
		Username:      rid.Username,
		Password:      rid.Password,
		Auth:          rid.Auth,
		IdentityToken: rid.IdentityToken,
		RegistryToken: rid.RegistryToken,
		ServerAddress: rid.ServerAddress,
	}
	encoded, err := registry.EncodeAuthConfig(auth)
	if err != nil {
		return "", errors.Annotate(err, "encoding registry credentials")
	}
	return encoded, nil
}

func fileExists(p string) (bool, error) {
	info, err := os.Stat(p)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Trace(err)
	}
	return !info.IsDir(), nil
}

// NewImageRepoDetails parses a file path or inline file content and
// returns an instance of ImageRepoDetails.
func NewImageRepoDetails(contentOrPath string) (*ImageRepoDetails, error) {
	if contentOrPath == "" {
		return nil, nil
	}
	data := []byte(contentOrPath)
	isPath, err := fileExists(contentOrPath)
	if err == nil && isPath {
		logger.Debugf("reading image repository information from %q", contentOrPath)
		data, err = os.ReadFile(contentOrPath)
		if err != nil {
			return nil, errors.Trace(err)
		}
	}
	o := &ImageRepoDetails{}
	err = yaml.Unmarshal(data, o)
	if err != nil {
		return &ImageRepoDetails{Repository: contentOrPath}, nil
	}

	if err = o.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	o.BasicAuthConfig.init()
	return o, nil
}
