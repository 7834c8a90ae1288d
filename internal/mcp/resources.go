package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/redcap-mcp/internal/mcp/tools"
	"github.com/usestring/redcap-mcp/pkg/client"
)

// Resource URI scheme: redcap://
// Supported URIs:
//   redcap://project
//   redcap://project.xml
//   redcap://metadata
//   redcap://instruments
//   redcap://record/{record}
//   redcap://instrument/{instrument}

const scheme = "redcap://"

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         scheme + "project",
		Name:        "Project",
		Description: "Project settings. Same data as the redcap_project tool.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.9,
		},
	}, s.handleResourceProject)

	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         scheme + "project.xml",
		Name:        "Project ODM XML",
		Description: "CDISC ODM export of the project metadata. High context cost - use redcap_project_xml with an xpath instead when you need a few values.",
		MIMEType:    tools.MimeXML,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.2,
		},
	}, s.handleResourceProjectXML)

	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         scheme + "metadata",
		Name:        "Data Dictionary",
		Description: "Full data dictionary. High context cost on large projects - redcap_fields returns only the names.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.6,
		},
	}, s.handleResourceMetadata)

	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         scheme + "instruments",
		Name:        "Instruments",
		Description: "Instrument (form) names and labels.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.7,
		},
	}, s.handleResourceInstruments)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: scheme + "record/{record}",
		Name:        "Record",
		Description: "Every row of one record across events and repeat instances.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.5,
		},
	}, s.handleResourceRecord)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: scheme + "instrument/{instrument}",
		Name:        "Instrument Fields",
		Description: "Data dictionary rows of one instrument.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.5,
		},
	}, s.handleResourceInstrument)
}

func (s *Server) handleResourceProject(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	project, err := s.deps.Client.Project(ctx, nil)
	if err != nil {
		return nil, tools.WrapREDCapError(err)
	}
	return toResourceResult(req.Params.URI, project)
}

func (s *Server) handleResourceProjectXML(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	doc, err := s.deps.Client.ProjectXML(ctx, client.RequestOptions{"returnMetadataOnly": "true"})
	if err != nil {
		return nil, tools.WrapREDCapError(err)
	}
	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{URI: req.Params.URI, MIMEType: tools.MimeXML, Text: doc},
		},
	}, nil
}

func (s *Server) handleResourceMetadata(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	fields, err := s.deps.Client.Metadata(ctx, nil)
	if err != nil {
		return nil, tools.WrapREDCapError(err)
	}
	return toResourceResult(req.Params.URI, fields)
}

func (s *Server) handleResourceInstruments(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	instruments, err := s.deps.Client.Instruments(ctx, nil)
	if err != nil {
		return nil, tools.WrapREDCapError(err)
	}
	return toResourceResult(req.Params.URI, instruments)
}

func (s *Server) handleResourceRecord(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	id, err := resourceParam(req.Params.URI, "record")
	if err != nil {
		return nil, err
	}
	rows, err := s.deps.Client.Records(ctx, client.RecordsQuery{Records: []string{id}}, nil)
	if err != nil {
		return nil, tools.WrapREDCapError(err)
	}
	if len(rows) == 0 {
		return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
	}
	return toResourceResult(req.Params.URI, rows)
}

func (s *Server) handleResourceInstrument(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	name, err := resourceParam(req.Params.URI, "instrument")
	if err != nil {
		return nil, err
	}
	fields, err := s.deps.Client.Metadata(ctx, client.RequestOptions{"forms[0]": name})
	if err != nil {
		return nil, tools.WrapREDCapError(err)
	}
	if len(fields) == 0 {
		return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
	}
	return toResourceResult(req.Params.URI, fields)
}

// resourceParam extracts the single path parameter of redcap://{kind}/{value}.
func resourceParam(uri, kind string) (string, error) {
	if !strings.HasPrefix(uri, scheme) {
		return "", tools.ErrInvalidInput("invalid URI scheme: expected " + scheme)
	}
	parts := strings.Split(strings.TrimPrefix(uri, scheme), "/")
	if len(parts) != 2 || parts[0] != kind {
		return "", tools.ErrInvalidInput(fmt.Sprintf("%s URI must look like %s%s/{%s}", kind, scheme, kind, kind))
	}
	if parts[1] == "" {
		return "", tools.ErrInvalidInput(kind + " is empty")
	}
	return parts[1], nil
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: tools.MimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
